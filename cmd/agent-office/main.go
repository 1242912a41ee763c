// Command agent-office runs the office as an interactive console.
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
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load("agent-office", args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent-office: %v\n", err)
		return 1
	}

	logger := cfg.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ListModels {
		m, err := config.NewModel(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agent-office: %v\n", err)
			return 1
		}

		ids, err := agentoffice.ListModels(ctx, m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agent-office: %v\n", err)
			return 1
		}

		fmt.Println("Available models:")
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}

		return 0
	}

	logger.Info("office.starting", "provider", cfg.Provider, "model", cfg.Model, "streaming", cfg.Streaming)

	off, err := agentoffice.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("office.setup_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error setting up office environment: %v\n", err)
		return 1
	}
	defer off.Close()

	if !cfg.SkipCheck {
		checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
		err := off.Check(checkCtx)
		checkCancel()

		if err != nil {
			logger.Error("office.check_failed", "provider", cfg.Provider, "error", err)
			fmt.Fprintf(os.Stderr, "Please fix the %s setup before running Agent Office: %v\n", cfg.Provider, err)
			return 1
		}
	}

	if cfg.Watch && cfg.RosterPath != "" {
		if err := off.Watch(ctx, cfg.RosterPath); err != nil {
			logger.Warn("office.watch_failed", "error", err)
		}
	}

	// Ctrl-C aborts the round in flight; at the prompt it leaves the office.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for sig := range sigCh {
			if sig == os.Interrupt && off.Chat().Abort() {
				continue
			}
			cancel()
			return
		}
	}()

	console := newREPL(off.Chat(), os.Stdin, os.Stdout, cfg.Streaming)
	console.banner()

	// The welcome message goes through a normal round; the console renders it.
	unsubscribe := off.Chat().Subscribe(console.onEvent)
	_, _, err = off.Welcome(ctx)
	unsubscribe()

	if err != nil {
		logger.Error("office.welcome_failed", "error", err)
	}

	if err := console.run(ctx); err != nil {
		logger.Error("office.console_failed", "error", err)
		return 1
	}

	return 0
}
