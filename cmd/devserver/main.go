// Package main runs the dashboard API against the in-process mock agent and
// scheduler, for browser testing without the real services.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"multibagger/config"
	"multibagger/e2e/mocks"
	"multibagger/internal/api"
	"multibagger/internal/app"
	"multibagger/observability"
)

func main() {
	observability.InitLogger(false)
	observability.InitMetrics()

	port := envOr("DEV_SERVER_PORT", "9090")
	mockPort := envOr("DEV_MOCK_PORT", "9091")

	dataDir := os.Getenv("DEV_DATA_DIR")
	if dataDir == "" {
		dir, err := os.MkdirTemp("", "multibagger-dev-*")
		if err != nil {
			observability.Fatal("failed to create temp data dir", "error", err)
		}
		defer os.RemoveAll(dir)
		dataDir = dir
	}

	mock := &http.Server{
		Addr:              ":" + mockPort,
		Handler:           mocks.NewMockHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		observability.Info("starting mock agent and scheduler", "port", mockPort)
		if err := mock.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("mock server error", "error", err)
		}
	}()

	mockURL := "http://localhost:" + mockPort
	cfg := config.NewTestConfig()
	cfg.Agent.BaseURL = mockURL
	cfg.Schedule.BaseURL = mockURL
	cfg.History.DataDir = filepath.Join(dataDir, "history")
	cfg.Settings.DataDir = filepath.Join(dataDir, "settings")
	cfg.Settings.Passphrase = "dev-server-passphrase"

	ctx := context.Background()
	dash, err := app.Wire(ctx, cfg)
	if err != nil {
		observability.Fatal("failed to wire dashboard", "error", err)
	}
	if _, err := dash.Schedule().Refresh(ctx); err != nil {
		observability.Warn("initial schedule refresh failed", "error", err)
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api.NewRouter(api.NewHandler(dash, cfg), cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		observability.Info("starting dev server", "port", port, "url", fmt.Sprintf("http://localhost:%s", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down dev server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}
	if err := mock.Shutdown(shutdownCtx); err != nil {
		observability.Error("mock server forced to shutdown", "error", err)
	}
	if err := dash.Shutdown(); err != nil {
		observability.Error("dashboard shutdown", "error", err)
	}
	observability.Info("dev server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
