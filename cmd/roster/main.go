package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/rosterkeeper/internal/cli"
	"github.com/dmitrijs2005/rosterkeeper/internal/config"
	"github.com/dmitrijs2005/rosterkeeper/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer z.Sync()
	}
	logger.Debug(ctx, "starting", "config", cfg.String())

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "roster stopped", "error", err)
	}

}
