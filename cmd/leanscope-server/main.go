package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxlab/leanscope/internal/rest"
	"voxlab/leanscope/leaning"
	"voxlab/leanscope/pkg/config"
	"voxlab/leanscope/pkg/logger"
	"voxlab/leanscope/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting leanscope", "version", cfg.App.Version)

	metrics.Init()

	classifier, err := leaning.NewOrtClassifier(leaning.ModelConfig{
		OrtSharedLib:  cfg.Model.OrtSharedLib,
		ModelPath:     cfg.Model.ModelPath,
		TokenizerPath: cfg.Model.TokenizerPath,
		MaxSeqLen:     cfg.Model.MaxSeqLen,
		ModelID:       cfg.Model.ModelID,
	})
	if err != nil {
		logger.Fatal("Failed to initialize classifier", "error", err)
	}
	logger.Info("Classifier loaded", "model", classifier.ModelID())

	head, err := leaning.LoadHead(cfg.Model.HeadPath)
	if err != nil {
		logger.Fatal("Failed to load classifier head", "error", err)
	}
	logger.Info("Classifier head loaded", "hidden_size", head.HiddenSize())

	service, err := leaning.NewService(classifier, head)
	if err != nil {
		logger.Fatal("Failed to initialize service", "error", err)
	}
	defer service.Close()

	analyzeHandler := rest.NewAnalyzeHandler(service, cfg.Server.MaxBatchSize)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())

	e.GET("/health", rest.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	api := e.Group("/api/v1")
	api.POST("/analyze", analyzeHandler.Analyze)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", err)
	}

	logger.Info("Server stopped")
}
