package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/time/rate"

	"shootmap/cache"
	"shootmap/config"
	"shootmap/custody"
	"shootmap/httputil"
	"shootmap/logging"
	"shootmap/models"
	"shootmap/scheduler"
	"shootmap/services"
	"shootmap/sheets"
	"shootmap/storage"
	"shootmap/workers"
)

var (
	initSheets = flag.Bool("init", false, "Write the header row of every sheet and exit")
	buildings  = flag.Bool("buildings", false, "Print grouped buildings as JSON and exit")
	rentID     = flag.String("rent", "", "Rent the key of listing ID (requires -by)")
	rentBy     = flag.String("by", "", "Renter name for -rent")
	returnID   = flag.String("return", "", "Return the key of listing ID")
	resetID    = flag.String("reset", "", "Reset the custody fields of listing ID")
	memory     = flag.Bool("memory", false, "Use an in-memory table instead of Google Sheets")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting shootmap...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table, err := openTable(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open sheets: %v", err)
	}

	if *initSheets {
		if err := storage.InitHeaders(ctx, table, cfg.Tables); err != nil {
			log.Fatalf("Init failed: %v", err)
		}
		log.Println("Sheet headers written")
		return
	}

	c := cache.New(cfg.TTLs)
	stores := storage.NewStores(table, cfg.Tables, c)

	audit, closeAudit, err := openAudit(ctx, cfg.Audit)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer closeAudit()

	machine := custody.New(stores.Listings, audit)
	snapshot := services.NewSnapshot(stores, c)

	// One-shot commands
	switch {
	case *buildings:
		groups, err := snapshot.Buildings(ctx)
		if err != nil {
			log.Fatalf("Load buildings failed: %v", err)
		}
		printJSON(groups)
		return
	case *rentID != "":
		printTransition(machine.Rent(ctx, *rentID, *rentBy))
		return
	case *returnID != "":
		printTransition(machine.Return(ctx, *returnID))
		return
	case *resetID != "":
		printTransition(machine.Reset(ctx, *resetID))
		return
	}

	// Daemon mode
	chat := services.NewChatService(snapshot, stores.Messages, stores.Users)

	archiver := workers.NewArchiveWorker(stores.Listings, stores.Archive, stores.Users)
	archiver.SetLogger(workers.StdLogger)
	go archiver.Run(ctx, 0)
	log.Println("Archive worker started")

	sched := scheduler.New(cfg.Scheduler, c, chat, archiver)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	if _, err := snapshot.Load(ctx); err != nil {
		log.Printf("Warning: initial snapshot failed: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	cancel()
	log.Println("Goodbye!")
}

func openTable(ctx context.Context, cfg *config.Config) (sheets.Table, error) {
	if *memory {
		mem := sheets.NewMemoryTable()
		if err := storage.InitHeaders(ctx, mem, cfg.Tables); err != nil {
			return nil, err
		}
		log.Println("Using in-memory sheets")
		return mem, nil
	}

	clients := httputil.NewClients(cfg.Sheets.Timeout)
	limiter := rate.NewLimiter(rate.Limit(cfg.Sheets.RatePerSec), cfg.Sheets.Burst)
	return sheets.NewGoogleTable(ctx, cfg.Sheets.Credentials(), clients.API, limiter)
}

// openAudit prefers Postgres, then SQLite. With neither configured the
// machine runs without an audit trail.
func openAudit(ctx context.Context, cfg config.AuditConfig) (custody.AuditLog, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := storage.NewPostgresAuditLog(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Custody audit log: %s", maskConnectionString(cfg.DatabaseURL))
		return pg, pg.Close, nil
	case cfg.DBPath != "":
		db, err := storage.NewSQLiteAuditLog(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Custody audit log: %s", cfg.DBPath)
		return db, func() { db.Close() }, nil
	}
	log.Println("Warning: no custody audit log configured")
	return nil, func() {}, nil
}

func printTransition(l *models.Listing, err error) {
	if err != nil {
		log.Fatalf("Transition failed: %v", err)
	}
	printJSON(l)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Encode output: %v", err)
	}
}

// maskConnectionString hides the password of a URL-style connection string.
func maskConnectionString(connStr string) string {
	scheme := strings.Index(connStr, "://")
	if scheme < 0 {
		return connStr
	}
	rest := connStr[scheme+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return connStr
	}
	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return connStr
	}
	return fmt.Sprintf("%s%s:****%s", connStr[:scheme+3], rest[:colon], rest[at:])
}
