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

	"github.com/joho/godotenv"
	"golang.org/x/sync/semaphore"

	"github.com/rbarros/linkedin-engage-bot/internal/ai"
	"github.com/rbarros/linkedin-engage-bot/internal/browser"
	"github.com/rbarros/linkedin-engage-bot/internal/config"
	"github.com/rbarros/linkedin-engage-bot/internal/extractor"
	"github.com/rbarros/linkedin-engage-bot/internal/gate"
	"github.com/rbarros/linkedin-engage-bot/internal/notifier"
	"github.com/rbarros/linkedin-engage-bot/internal/processor"
	"github.com/rbarros/linkedin-engage-bot/internal/scraper"
	"github.com/rbarros/linkedin-engage-bot/internal/session"
	"github.com/rbarros/linkedin-engage-bot/internal/storage"
)

type Server struct {
	processor processor.Processor
	// One browser run at a time within this process. The Firestore
	// cooldown gate covers cross-process triggers, best-effort.
	runLock *semaphore.Weighted
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	slog.Info("Starting LinkedIn engagement bot server...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Critical error initializing Firestore client", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := session.NewDualStore(
		session.NewFileStore(cfg.SessionFile),
		session.NewRemoteStore(store),
	)
	engine := extractor.New(extractor.LoadConfig())
	g := gate.New(store, store, cfg.MaxStoredRunRecords)

	drafter, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("Reply drafting disabled", "error", err)
	}

	factory := func(ctx context.Context) (processor.Scanner, func(), error) {
		driver, err := browser.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := driver.Close(); err != nil {
				slog.Warn("Failed to close browser", "error", err)
			}
		}
		return scraper.New(driver, sessions, engine, cfg), cleanup, nil
	}

	p := processor.New(store, store, g, factory, drafter, notifier.New(cfg.DiscordWebhookURL), cfg)
	srv := &Server{processor: p, runLock: semaphore.NewWeighted(1)}

	mux := http.NewServeMux()
	mux.HandleFunc("/run-scraper", srv.RunScraperHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

// RunScraperHandler kicks off one scraper run asynchronously so the
// scheduler tick isn't blocked by browser startup and navigation.
func (s *Server) RunScraperHandler(w http.ResponseWriter, r *http.Request) {
	if !s.runLock.TryAcquire(1) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintln(w, "A scraper run is already in progress.")
		return
	}

	go func() {
		defer s.runLock.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Panic in scraper run", "panic", rec)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.processor.Run(ctx); err != nil {
			slog.Error("Error running scraper", "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Scraper run started.")
}
