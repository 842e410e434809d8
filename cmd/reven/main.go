package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"revenai/internal/admintoken"
	"revenai/internal/app"
	"revenai/internal/config"
	"revenai/internal/notify"
	"revenai/internal/server"
	"revenai/internal/util"
	"revenai/pkg/ai"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	adminTokens, err := admintoken.NewVerifier(admintoken.Config{Secret: cfg.AdminTokenSecret})
	if err != nil {
		logger.Error("failed to init admin token verifier", "err", err)
		os.Exit(1)
	}

	notifier := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.NotifyExchange)
	if notifier != nil {
		defer notifier.Close()
	}

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Completer:   ai.NewGatewayClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.Model),
		Notifier:    notifier,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	httpServer, err := server.New(server.Config{
		App:                    appCore,
		AdminTokens:            adminTokens,
		RedisAddr:              cfg.RedisAddr,
		RedisPassword:          cfg.RedisPassword,
		ChatRateLimitPerMinute: cfg.ChatRateLimitPerMinute,
		TrustedProxyCIDRs:      cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		logger.Error("failed to init server", "err", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("reven server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
