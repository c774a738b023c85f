package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	"github.com/m3rciful/weatherbot/core/logger"
)

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config *coreconfig.Config
	// Client is built from Config when nil.
	Client  *Client
	Handler Handler
	// Commands is published with setMyCommands before polling starts; empty skips the call.
	Commands []tele.Command

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Client *Client
	Poller *Poller
}

// NewClientFromConfig builds a Client whose HTTP timeouts account for the long-poll timeout.
func NewClientFromConfig(cfg *coreconfig.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("telegram: nil config provided")
	}
	timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	return NewClient(ClientOptions{
		Token:      cfg.Telegram.Token,
		APIURL:     cfg.Telegram.APIURL,
		HTTPClient: BuildHTTPClient(timeout),
	})
}

// RunTelegram composes the polling loop and runs it until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Handler == nil {
		return fmt.Errorf("telegram: nil handler provided")
	}
	cfg := opts.Config

	buildStart := time.Now()
	client := opts.Client
	if client == nil {
		var err error
		client, err = NewClientFromConfig(cfg)
		if err != nil {
			return err
		}
	}
	poller := NewPoller(client, opts.Handler, PollerOptions{
		TimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Interval:       time.Duration(cfg.Telegram.PollIntervalMS) * time.Millisecond,
	})
	rt := Runtime{Client: client, Poller: poller}

	logger.TG.Info("polling mode",
		slog.String("event", "mode"),
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", cfg.Telegram.LongPollTimeoutSeconds),
		slog.Int("interval_ms", cfg.Telegram.PollIntervalMS),
		slog.Duration("duration", logger.Took(buildStart)),
	)

	if !opts.DisableWebhookCleanup {
		if err := client.DeleteWebhook(ctx, false); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("mode", "polling"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.TG.Debug("webhook deleted",
				slog.String("event", "delete_webhook"),
				slog.String("mode", "polling"),
			)
		}
	}

	if len(opts.Commands) > 0 {
		if err := client.SetCommands(ctx, opts.Commands); err != nil {
			logger.TG.Warn("failed to set commands",
				slog.String("event", "set_commands"),
				slog.String("err", err.Error()),
			)
		}
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := poller.Run(ctx)

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	if stopErr != nil {
		return stopErr
	}
	return runErr
}
