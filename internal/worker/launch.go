package worker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"

	"docnotes/internal/config"
)

// WorkerSubcommand is the CLI subcommand that runs the tool worker.
const WorkerSubcommand = "worker"

// Launch describes how to start the worker subprocess.
type Launch struct {
	Command string
	Args    []string
	Env     []string
}

// ResolveLaunch re-executes the running binary as a worker unless a
// command is configured. The worker inherits the full environment so
// credentials configured for the server reach it.
func ResolveLaunch(cfg *config.Config) (Launch, error) {
	if cfg == nil {
		return Launch{}, errors.New("config required")
	}
	l := Launch{Env: os.Environ()}
	if cfg.Worker.Command != "" {
		l.Command = cfg.Worker.Command
		l.Args = append(l.Args, cfg.Worker.Args...)
		return l, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return Launch{}, fmt.Errorf("resolve executable: %w", err)
	}
	l.Command = exe
	l.Args = []string{WorkerSubcommand}
	if src := cfg.Source(); src != "" {
		l.Args = append(l.Args, "--config", src)
	}
	l.Args = append(l.Args, cfg.Worker.Args...)
	return l, nil
}

// StdioDialer spawns a fresh worker per call, connected over stdin/stdout.
// The worker's stderr is forwarded to the log.
func StdioDialer(l Launch) Dialer {
	return func(ctx context.Context) (Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if l.Command == "" {
			return nil, errors.New("worker command is empty")
		}
		debugLog("spawning worker: %s %v", l.Command, l.Args)
		stdio := transport.NewStdio(l.Command, l.Env, l.Args...)
		// the process lives until the session closes it, not until ctx ends
		if err := stdio.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("start worker %s: %w", l.Command, err)
		}
		return newStdioClient(client.NewClient(stdio), stdio.Stderr()), nil
	}
}
