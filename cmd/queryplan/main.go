// Command queryplan is a demo CLI: it loads a YAML config describing a
// servicegroups table, reads one request's header lines from stdin, and
// writes the framed response to stdout. It exists to exercise the
// parser/scanner/protocol stack end to end without standing up any
// actual network listener (spec.md's Non-goals exclude network
// transport).
//
// Signal handling and logger setup follow thisisjab-logzilla's
// cmd/cli/main.go.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/watchflow/queryplan/config"
	"github.com/watchflow/queryplan/engine"
	"github.com/watchflow/queryplan/protocol"
)

func main() {
	if len(os.Args) < 2 {
		slog.Error("usage: queryplan <config.yaml>")
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	runtime, err := cfg.Parse()
	if err != nil {
		slog.Error("cannot parse config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		runtime.Logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	scanner := engine.NewScanner(runtime.Workers, runtime.Logger)
	frontend := protocol.New(runtime.Table, runtime.Table, runtime.Triggers, scanner, runtime.Logger)

	if err := frontend.Handle(ctx, os.Stdin, os.Stdout); err != nil {
		runtime.Logger.Error("query failed", "error", err)
		os.Exit(1)
	}
}
