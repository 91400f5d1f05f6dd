package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewin66/PodPuppy/app/api"
	"github.com/ewin66/PodPuppy/app/cfg"
	"github.com/ewin66/PodPuppy/app/database"
	"github.com/ewin66/PodPuppy/app/downloader"
	"github.com/ewin66/PodPuppy/app/engine"
	"github.com/ewin66/PodPuppy/app/feed"
	"github.com/ewin66/PodPuppy/app/fetcher"
	"github.com/ewin66/PodPuppy/app/playlist"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PodPuppy", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	repo := database.NewFeedRepository(db)
	notifier := engine.LogNotifier{}
	storage := &engine.DiskStorage{Base: appCfg.DownloadDir}
	playlistWriter := playlist.NewWriter(appCfg.DownloadDir, notifier.PlaylistWriteFailed)
	feedFetcher := fetcher.New(appCfg.UserAgent)

	eng := engine.New(repo, feedFetcher, nil, playlistWriter, notifier, storage, engine.Options{
		DownloadDir:        appCfg.DownloadDir,
		RefreshInterval:    time.Duration(appCfg.RefreshInterval) * time.Second,
		DownloadOnlyLatest: appCfg.DownloadOnlyLatest,
	})

	pool := downloader.NewPool(appCfg.WorkerCount, appCfg.UserAgent, eng.OnDownloadProgress, eng.OnDownloadDone)
	defer pool.Stop()
	eng.SetPool(pool)

	if err := eng.Load(); err != nil {
		slog.Error("Failed to load feed collection", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		eng.Run(ctx)
	}()

	if appCfg.SubscriptionsFile != "" {
		entries, err := feed.LoadSubscriptions(appCfg.SubscriptionsFile)
		if err != nil {
			slog.Warn("Failed to load subscriptions file", "path", appCfg.SubscriptionsFile, "error", err)
		} else if len(entries) > 0 {
			slog.Info("Importing subscriptions", "path", appCfg.SubscriptionsFile, "count", len(entries))
			eng.ImportSubscriptions(entries)
		}
	}

	handler := api.NewHandler(eng)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	}

	cancel()
	<-engineDone
	slog.Info("Shutdown complete")
}
