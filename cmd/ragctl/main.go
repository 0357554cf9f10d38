package main

import (
	"context"
	"os"

	"hierarag/internal/bootstrap"
	"hierarag/internal/config"
	"hierarag/internal/pkg/logger"
)

func main() {
	open := func(ctx context.Context, cfg *config.Config) (*bootstrap.App, error) {
		log := logger.New(os.Stderr, cfg.App.Env, cfg.App.LogLevel)
		return bootstrap.New(ctx, cfg, log, bootstrap.WithoutBroker())
	}
	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}
