package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/recipe-box/internal/config"
	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/queue"
)

func consumeCmd() *cli.Command {
	return &cli.Command{
		Name:  "consume",
		Usage: "Append recipe events from the broker to the audit log",
		Action: func(appCtx *cli.Context) error {
			_ = godotenv.Load()
			cfg := config.LoadBrokerConfig()
			logger := logutil.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
			ctx := logutil.WithLogger(appCtx.Context, logger)

			c := &queue.AuditConsumer{URL: cfg.URL, Queue: cfg.Queue, LogPath: cfg.AuditLog}
			logger.Info().Str("queue", cfg.Queue).Str("log", cfg.AuditLog).Msg("audit consumer starting")
			err := c.Run(ctx)
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		},
	}
}
