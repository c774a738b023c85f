package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/core/weather"
)

// summary collects what a single update did, for one handler.handled line.
type summary struct {
	handler      string
	payload      string
	command      string
	status       string
	outcome      string
	state        state.State
	next         state.State
	messages     int
	sendFailures int
	kb           bool
	attrs        []slog.Attr
}

func logHandlerSummary(ctx context.Context, sum *summary, start time.Time, err error) {
	name := normalizeHandlerName(sum.handler)
	ctx = logger.WithHandler(ctx, name)

	status := sum.status
	if status == "" {
		if err != nil {
			status = "fail"
		} else {
			status = "ok"
		}
	}
	outcome := sum.outcome
	if outcome == "" {
		if err != nil {
			outcome = "fail"
		} else {
			outcome = "ok"
		}
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.String("outcome", outcome),
		slog.String("payload", sum.payload),
		slog.Int("messages", sum.messages),
		slog.Bool("kb", sum.kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if sum.command != "" {
		attrs = append(attrs, slog.String("command", logger.SanitizeLimit(sum.command, 64)))
	}
	if sum.state != "" {
		attrs = append(attrs, slog.String("state", string(sum.state)))
	}
	if sum.next != "" {
		attrs = append(attrs, slog.String("next_state", string(sum.next)))
	}
	if sum.sendFailures > 0 {
		attrs = append(attrs, slog.Int("send_failures", sum.sendFailures))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_kind", deriveErrorKind(err)),
		)
	}
	attrs = append(attrs, sum.attrs...)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT"
	case errors.Is(err, weather.ErrUnexpectedPayload):
		return "UNEXPECTED_PAYLOAD"
	case errors.Is(err, weather.ErrInvalidKey):
		return "INVALID_KEY"
	}
	t := reflect.TypeOf(errors.Unwrap(err))
	if t == nil {
		t = reflect.TypeOf(err)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToUpper(name)
	}
	return "UNKNOWN_ERROR"
}
