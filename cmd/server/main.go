package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docvision/docvision-api/internal/config"
	"github.com/docvision/docvision-api/internal/router"
	"github.com/docvision/docvision-api/internal/services"
	"github.com/docvision/docvision-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	service := services.NewService(cfg, logger)
	handler := router.New(service, logger, cfg.MaxFileSize)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
		// The provider call can legitimately take close to the full
		// request timeout, so the write timeout sits above it.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"model", cfg.VisionModel,
			"max_file_size", cfg.MaxFileSize,
			"max_pdf_pages", cfg.MaxPDFPages)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
