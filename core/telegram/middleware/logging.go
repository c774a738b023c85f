package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
)

const previewLimit = 64

// Logger writes one receipt line per update before the handler runs.
func Logger(next tg.Handler) tg.Handler {
	return tg.HandlerFunc(func(ctx context.Context, u tg.Update) error {
		if logger.RIDFrom(ctx) == "" {
			ctx = logger.WithRID(logger.WithUpdateMeta(ctx, u.ID, u.ChatID), logger.BuildRID(u.ID, u.ChatID))
		}
		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.String("payload", tg.PayloadKind(u.Payload)),
		}
		if text, ok := u.Payload.(tg.Text); ok {
			if cmd := commandOf(string(text)); cmd != "" {
				attrs = append(attrs, slog.String("command", cmd))
			} else if logger.ShouldSampleDebug() {
				attrs = append(attrs, slog.String("text", logger.SanitizeLimit(string(text), previewLimit)))
			}
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		return next.HandleUpdate(ctx, u)
	})
}

func commandOf(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	return logger.SanitizeLimit(cmd, previewLimit)
}
