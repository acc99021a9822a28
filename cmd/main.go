package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"text2sql-chat/handler"
	"text2sql-chat/internal/config"
	"text2sql-chat/internal/integrations/backend"
	"text2sql-chat/internal/integrations/paramstore"
	"text2sql-chat/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load .env", "err", err)
		os.Exit(1)
	}

	var params paramstore.Lookuper
	if config.ParamPrefix(os.Getenv) != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		params = ssmClient
	}

	cfg, err := config.Load(ctx, os.Getenv, params)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	backendClient, err := backend.NewClient(cfg.BaseURL, backend.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}))
	if err != nil {
		slog.Error("failed to create backend client", "err", err)
		os.Exit(1)
	}
	slog.Info("backend configured", "baseUrl", backendClient.BaseURL(), "source", cfg.BaseURLSource)

	// ---- Conversation ----
	notices := usecase.NewNoticeQueue(cfg.NoticeBuffer)
	conv, err := usecase.NewConversation(backendClient, usecase.WithNotifier(notices), usecase.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create conversation", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(conv, notices, logger)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server listen error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return
	}
	slog.Info("server shutdown complete")
}
