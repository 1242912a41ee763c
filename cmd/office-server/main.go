// Command office-server serves the office over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/agentoffice"
	"github.com/hupe1980/agentoffice/config"
	"github.com/hupe1980/agentoffice/logging"
	"github.com/hupe1980/agentoffice/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load("office-server", args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "office-server: %v\n", err)
		return 1
	}

	zl := logging.NewZerolog(func(c *logging.ZerologConfig) {
		c.Level = cfg.LogLevel
		c.Pretty = cfg.LogPretty
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	off, err := agentoffice.FromConfig(ctx, cfg, zl)
	if err != nil {
		zl.Error("office.setup_failed", "error", err)
		return 1
	}
	defer off.Close()

	if !cfg.SkipCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := off.Check(checkCtx)
		cancel()

		if err != nil {
			zl.Error("office.check_failed", "provider", cfg.Provider, "error", err)
			return 1
		}
	}

	if cfg.Watch && cfg.RosterPath != "" {
		if err := off.Watch(ctx, cfg.RosterPath); err != nil {
			zl.Warn("office.watch_failed", "error", err)
		}
	}

	if _, _, err := off.Welcome(ctx); err != nil {
		zl.Warn("office.welcome_failed", "error", err)
	}

	srv := server.New(off.Chat(), func(o *server.Options) {
		o.Addr = cfg.Addr
		o.Logger = zl.Zerolog().With().Str("component", "http").Logger()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			zl.Error("server.crashed", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	stop()
	zl.Info("server.shutting_down")

	off.Chat().Abort()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		zl.Error("server.shutdown_failed", "error", err)
		return 1
	}

	zl.Info("server.stopped")

	return 0
}
