package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docnotes/internal/document"
	"docnotes/internal/notes"
	"docnotes/internal/toolserver"
	"docnotes/internal/worker"
)

// stdout is the protocol channel, so the worker must only log to stderr.
var workerCmd = &cobra.Command{
	Use:    worker.WorkerSubcommand,
	Short:  "Serve the document and notes tools over stdio",
	Hidden: true,
	RunE:   runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	log.SetOutput(os.Stderr)
	log.SetPrefix("worker: ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploader, err := notes.NewUploader(cfg.Notes)
	if err != nil {
		return err
	}
	extractor, err := document.NewExtractor(ctx)
	if err != nil {
		return err
	}

	srv := toolserver.New(uploader, extractor)
	err = toolserver.Serve(ctx, srv, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		log.Printf("tool server stopped: %v", err)
		return err
	}
	return nil
}
