package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engineed/engineed/app/api"
	"github.com/engineed/engineed/app/cfg"
	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/enrich"
	"github.com/engineed/engineed/app/fetch"
	"github.com/engineed/engineed/app/pipeline"
	"github.com/engineed/engineed/app/scrape"
	"github.com/engineed/engineed/app/tasks"
	"github.com/engineed/engineed/app/vocab"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Engineed server", "version", cfg.GetVersion())

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := scrape.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	vocabStore := vocab.NewStore(appCfg.VocabularyFile)
	if err := vocabStore.Load(); err != nil {
		slog.Error("Failed to load vocabulary", "file", appCfg.VocabularyFile, "error", err)
		os.Exit(1)
	}

	articleRepo := database.NewArticleRepository(db)
	tagRepo := database.NewTagRepository(db)
	jobRepo := database.NewJobRepository(db)

	fetcher := fetch.NewFetcher(fetch.Options{
		UserAgent:         appCfg.UserAgent,
		GlobalConcurrency: appCfg.FetchConcurrency,
		DomainConcurrency: appCfg.DomainConcurrency,
		TargetConcurrency: appCfg.TargetConcurrency,
		StartDelay:        time.Duration(appCfg.StartDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(appCfg.MaxDelayMs) * time.Millisecond,
	})

	var summarizer enrich.Summarizer
	if appCfg.SummarizerHost != "" {
		client := enrich.NewOllamaClient(appCfg.SummarizerHost, appCfg.SummarizerModel,
			time.Duration(appCfg.SummarizerTimeout)*time.Second)

		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if client.Healthy(probeCtx) {
			slog.Info("Summarization service available", "host", appCfg.SummarizerHost, "model", appCfg.SummarizerModel)
		} else {
			slog.Warn("Summarization service unreachable, falling back to local summaries", "host", appCfg.SummarizerHost)
		}
		cancel()

		summarizer = client
	} else {
		slog.Info("No summarization service configured, using local summaries")
	}

	newCoordinator := func() *pipeline.Coordinator {
		return pipeline.NewCoordinator(
			pipeline.NewPersister(articleRepo),
			pipeline.NewValidator(appCfg.MinContentLength),
			pipeline.NewDeduplicator(),
			pipeline.NewNormalizer(appCfg.DefaultLanguage),
			enrich.NewEngine(vocabStore, summarizer, appCfg.MinSummaryLength),
		)
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, jobRepo, fetcher, newCoordinator)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, articleRepo, tagRepo, jobRepo, vocabStore, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
