package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docnotes/internal/api"
	"docnotes/internal/service/assistant"
	"docnotes/internal/uploads"
	"docnotes/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if src := cfg.Source(); src != "" {
		log.Printf("config: %s", src)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := uploads.NewStore(cfg.BasicConfig.UploadDir, cfg.BasicConfig.DeleteUploads)
	if err != nil {
		return err
	}
	store.StartCleaner(ctx, cfg.BasicConfig.CleanInterval, cfg.BasicConfig.UploadTTL)

	launch, err := worker.ResolveLaunch(cfg)
	if err != nil {
		return err
	}
	assistantService, err := assistant.NewService(cfg, worker.StdioDialer(launch))
	if err != nil {
		return err
	}

	handlers := api.NewHandler(assistantService, store, cfg.BasicConfig)
	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8000"
	}
	srv := &http.Server{Addr: addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (model %s/%s)", addr, cfg.Model.Provider, cfg.Model.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("server stopped: %v", err)
		return err
	}
	return nil
}
