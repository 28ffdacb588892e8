// Chainpulse is a multi-chain IBC monitoring daemon. It subscribes to new
// blocks on every configured chain, decodes IBC packet messages, persists
// a normalized record, and exposes Prometheus metrics and a read-only
// HTTP API over the result.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cordtus/chainpulse-go/pkg/api"
	"github.com/cordtus/chainpulse-go/pkg/config"
	"github.com/cordtus/chainpulse-go/pkg/metrics"
	"github.com/cordtus/chainpulse-go/pkg/monitor"
	"github.com/cordtus/chainpulse-go/pkg/store"
	"github.com/cordtus/chainpulse-go/pkg/supervisor"
	"github.com/cordtus/chainpulse-go/pkg/version"
)

func main() {
	if err := run(); err != nil {
		slog.Error("chainpulse exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 2 {
		return fmt.Errorf("usage: %s <config.toml>", os.Args[0])
	}
	configPath := os.Args[1]

	slog.Info("starting chainpulse", "version", version.Full())

	cfg, err := config.Initialize(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	slog.Info("store ready", "path", cfg.Database.Path)

	m := metrics.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sup := supervisor.New(cfg.Chains, st, m)
	mon := monitor.New(st, m)

	if cfg.Metrics.PopulateOnStart {
		slog.Info("populating metrics from existing store before first tick")
		mon.Sweep()
	}

	go sup.Run(ctx)
	go mon.Run(ctx)

	if cfg.Metrics.Enabled {
		srv := api.New(st, m)
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		slog.Info("HTTP server listening", "addr", addr)
		go func() {
			if err := srv.Router().Run(addr); err != nil {
				slog.Error("HTTP server stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}
