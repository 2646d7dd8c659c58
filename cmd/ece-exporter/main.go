package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marocz/ece-exporter/internal/auth"
	"github.com/marocz/ece-exporter/internal/config"
	"github.com/marocz/ece-exporter/internal/ece"
	"github.com/marocz/ece-exporter/internal/exporter"
)

const version = "0.4.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("ece-exporter starting", "version", version, "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(parseLevel(cfg.Exporter.LogLevel))

	slog.Info("config loaded",
		"url", cfg.Exporter.URL,
		"port", cfg.Exporter.Port,
		"timeout", cfg.Exporter.Timeout,
		"stale_after", cfg.Exporter.EffectiveStaleAfter(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ece.New(ece.Options{
		BaseURL:            cfg.Exporter.URL,
		Username:           cfg.Exporter.Auth.Username,
		Password:           cfg.Exporter.Auth.Password(),
		APIKey:             cfg.Exporter.Auth.APIKey(),
		InsecureSkipVerify: cfg.Exporter.TLS.InsecureSkipVerify,
	})
	if err != nil {
		slog.Error("failed to build ECE client", "err", err)
		os.Exit(1)
	}

	h := exporter.New(client, cfg.Exporter, version)

	// Hot reload: staleness ceiling, cluster name, ERU cost and log level.
	// URL, credentials, port and timeout changes need a restart.
	go func() {
		err := config.Watch(ctx, *configPath, cfg, func(next *config.Config) {
			h.ApplyConfig(next)
			level.Set(parseLevel(next.Exporter.LogLevel))
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Exporter.Port),
		Handler: auth.APIKeyMiddleware(
			cfg.Exporter.InboundAuth.Mode,
			cfg.Exporter.InboundAuth.EffectiveHeader(),
			cfg.Exporter.InboundAuth.Key(),
			h,
		),
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Exporter.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("ece-exporter shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// parseLevel maps a config log level to its slog value. Unknown strings fall
// back to info; validation has already rejected them anyway.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
