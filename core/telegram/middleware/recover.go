// Package middleware wraps update handlers with cross-cutting behaviour.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
)

// Middleware decorates a handler.
type Middleware func(next tg.Handler) tg.Handler

// Chain applies mws so that the first one is outermost.
func Chain(h tg.Handler, mws ...Middleware) tg.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Recover turns a handler panic into an error so the polling loop keeps running.
func Recover(next tg.Handler) tg.Handler {
	return tg.HandlerFunc(func(ctx context.Context, u tg.Update) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("telegram: handler panic: %v", r)
			}
		}()
		return next.HandleUpdate(ctx, u)
	})
}
