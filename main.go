package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg := LoadConfig()
	configureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}

	var port Persistence
	var fileStore *FileStore
	switch cfg.Storage {
	case storageSQLite:
		db, err := InitJournalDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to init database: %v", err)
		}
		defer db.Close()
		port = NewSQLiteStore(db)
	default:
		fileStore = NewFileStore(cfg.JournalPath)
		port = fileStore
	}

	journal := NewJournal(port)
	if err := journal.Load(); err != nil {
		log.Fatalf("Failed to load journal: %v", err)
	}
	log.Printf("journal loaded shots=%d storage=%s", journal.Len(), cfg.Storage)

	timer := NewShotTimer(func(seconds int) {
		log.Printf("timer extraction stopped seconds=%d", seconds)
	})

	var ai aiService
	assistant, err := NewAssistant(cfg)
	switch {
	case err == nil:
		ai = assistant
	case errors.Is(err, ErrMissingAPIKey):
		log.Printf("anthropic key missing; advice and search disabled until configured")
	default:
		log.Fatalf("Failed to build anthropic client: %v", err)
	}

	notifier := NewNotifier(cfg)
	StartDigestScheduler(cfg, journal, notifier)

	if fileStore != nil && cfg.WatchJournal {
		stopWatch, err := WatchJournalFile(fileStore, journal)
		if err != nil {
			log.Printf("journal watcher disabled error=%v", err)
		} else {
			defer stopWatch()
		}
	}

	server := NewServer(cfg, journal, timer, ai)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Routes(),
	}

	go func() {
		log.Printf("shotlog listening addr=%s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error=%v", err)
	}
}
