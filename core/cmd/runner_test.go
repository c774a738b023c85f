package cmd

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
)

type stubApp struct {
	opts coretelegram.RunOptions
	err  error
}

func (a stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return a.opts, a.err
}

func loadStub(path string) (ConfigCarrier, error) {
	return &coreconfig.Config{}, nil
}

func TestRunRequiresHooks(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatalf("expected error without LoadConfig")
	}
	if err := Run(Options{LoadConfig: loadStub}); err == nil {
		t.Fatalf("expected error without Bootstrap")
	}
}

func TestRunUsesConfigEnv(t *testing.T) {
	t.Setenv("WEATHERBOT_TEST_CONFIG", "/tmp/from-env.yaml")
	var gotPath string
	boom := errors.New("stop here")
	err := Run(Options{
		ConfigEnvVar:      "WEATHERBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return nil, boom
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if gotPath != "/tmp/from-env.yaml" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	var started, stopped, shutdown bool
	app := stubApp{opts: coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
	}}
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadStub,
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger:    func() error { shutdown = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !started || !stopped || !shutdown {
		t.Fatalf("started=%v stopped=%v shutdown=%v", started, stopped, shutdown)
	}
}

func TestRunInterruptIsCleanExit(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadStub,
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return stubApp{}, nil },
		ShutdownLogger:    func() error { return nil },
		Signals:           []os.Signal{syscall.SIGUSR1},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
				return errors.New("signal not delivered")
			}
			if err := opts.OnStop(context.WithoutCancel(ctx), coretelegram.Runtime{}); err != nil {
				return err
			}
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("interrupt must exit cleanly, got %v", err)
	}
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	boom := errors.New("bad wiring")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadStub,
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
		ShutdownLogger:    func() error { return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
