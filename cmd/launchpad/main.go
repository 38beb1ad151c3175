// cmd/launchpad/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/config"
	"github.com/moonforge/launchpad/internal/launchpad"
	"github.com/moonforge/launchpad/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting launchpad")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := launchpad.NewRunner(cfg, log.Logger)
	if err := runner.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize launchpad", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Launchpad execution error", zap.Error(err))
	}
}
