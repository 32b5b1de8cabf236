package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/bot"
	"github.com/ethanocurtis/MultiNotify/internal/config"
	"github.com/ethanocurtis/MultiNotify/internal/notify"
	"github.com/ethanocurtis/MultiNotify/internal/pipeline"
	"github.com/ethanocurtis/MultiNotify/internal/scheduler"
	"github.com/ethanocurtis/MultiNotify/internal/source"
	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	// Bounded timeout on every outbound call so a hung remote endpoint
	// cannot stall a cycle.
	httpClient := &http.Client{Timeout: 10 * time.Second}

	reddit := source.NewReddit(httpClient, cfg.RedditUserAgent)
	feeds := source.NewFeed(httpClient)
	webhook := notify.NewWebhook(httpClient)

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}
	pl := pipeline.New(store, reddit, feeds, b, webhook, log)
	b.SetPipeline(pl)

	sched := scheduler.New(pl, store, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting multinotify")

	sched.Start(ctx)
	b.Run(ctx)

	log.Info("multinotify stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
