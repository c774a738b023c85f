package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
)

func TestRunTelegramPollsAndStops(t *testing.T) {
	srv, rec := newFakeAPI(t, func(method string) string {
		switch method {
		case "getUpdates":
			return `{"ok":true,"result":[{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":3,"type":"private"},"text":"hello"}}]}`
		default:
			return `{"ok":true,"result":true}`
		}
	})
	cfg := &coreconfig.Config{}
	cfg.Telegram.Token = testToken
	cfg.Telegram.APIURL = srv.URL
	cfg.Telegram.PollIntervalMS = 5

	var (
		mu   sync.Mutex
		seen []Update
	)
	ctx, cancel := context.WithCancel(context.Background())
	handler := HandlerFunc(func(_ context.Context, u Update) error {
		mu.Lock()
		seen = append(seen, u)
		mu.Unlock()
		cancel()
		return nil
	})

	var started, stopped bool
	done := make(chan error, 1)
	go func() {
		done <- RunTelegram(ctx, RunOptions{
			Config:  cfg,
			Handler: handler,
			OnStart: func(context.Context, Runtime) error { started = true; return nil },
			OnStop:  func(context.Context, Runtime) error { stopped = true; return nil },
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunTelegram: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("RunTelegram did not return")
	}
	if !started || !stopped {
		t.Fatalf("hooks: started=%v stopped=%v", started, stopped)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].Payload != Text("hello") {
		t.Fatalf("seen = %+v", seen)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.methods) < 2 || rec.methods[0] != "deleteWebhook" || rec.methods[1] != "getUpdates" {
		t.Fatalf("calls = %v", rec.methods)
	}
}

func TestRunTelegramRequiresHandler(t *testing.T) {
	if err := RunTelegram(context.Background(), RunOptions{Config: &coreconfig.Config{}}); err == nil {
		t.Fatalf("expected error without handler")
	}
}
