package middleware

import (
	"context"
	"strings"
	"testing"

	tg "github.com/m3rciful/weatherbot/core/telegram"
)

func TestRecoverConvertsPanic(t *testing.T) {
	h := Recover(tg.HandlerFunc(func(context.Context, tg.Update) error {
		panic("boom")
	}))
	err := h.HandleUpdate(context.Background(), tg.Update{ID: 1})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next tg.Handler) tg.Handler {
			return tg.HandlerFunc(func(ctx context.Context, u tg.Update) error {
				order = append(order, name)
				return next.HandleUpdate(ctx, u)
			})
		}
	}
	h := Chain(tg.HandlerFunc(func(context.Context, tg.Update) error {
		order = append(order, "handler")
		return nil
	}), mark("outer"), nil, mark("inner"))

	if err := h.HandleUpdate(context.Background(), tg.Update{}); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if strings.Join(order, ",") != "outer,inner,handler" {
		t.Fatalf("order = %v", order)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	called := false
	h := Logger(tg.HandlerFunc(func(context.Context, tg.Update) error {
		called = true
		return nil
	}))
	if err := h.HandleUpdate(context.Background(), tg.Update{ID: 2, ChatID: 3, Payload: tg.Text("/weather now")}); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if got := commandOf(" /weather now"); got != "/weather" {
		t.Fatalf("commandOf = %q", got)
	}
}
