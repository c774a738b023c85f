package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/m3rciful/weatherbot/core/bootstrap"
	corecmd "github.com/m3rciful/weatherbot/core/cmd"
	coreconfig "github.com/m3rciful/weatherbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return coreconfig.Load(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bootstrap.Run(ctx, bootstrap.Options{Config: cfg.CoreConfig()})
		},
	})
	if err != nil {
		log.Print(err)
		fmt.Fprintln(os.Stderr, "weatherbot: exiting with error")
		os.Exit(1)
	}
}
