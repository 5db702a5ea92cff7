package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-tile-renderer/internal/config"
	"pdf-tile-renderer/internal/handler"
	"pdf-tile-renderer/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()

	// Document opens wait for the engine. If it fails to start they get 503.
	container.StartEngine(context.Background())

	if location := container.Config.GetDocumentLocation(); location != "" {
		go preload(container, location)
	}

	// Handlers
	documentHandler := handler.NewDocumentHandler(
		container.DocumentService,
		container.Config.GetMaxFileSize(),
		container.Logger,
	)
	viewerHandler := handler.NewViewerHandler(
		container.DocumentService,
		container.Logger,
	)
	blobHandler := handler.NewBlobHandler(
		container.BlobStore,
		container.Logger,
	)

	// Router
	router := handler.NewRouter(
		documentHandler,
		viewerHandler,
		blobHandler,
		handler.RequestLogger(container.Logger),
	)

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}
	container.Close(ctx)

	container.Logger.Info("Server exited")
}

func preload(container *config.Container, location string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	info, err := container.DocumentService.Open(ctx, service.DocumentSource{Location: location})
	if err != nil {
		container.Logger.Error("Failed to preload document", err, "location", location)
		return
	}
	container.Logger.Info("Document preloaded", "location", location, "pages", info.PageCount)
}
