package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/trip.report/internal/api"
	"github.com/banshee-data/trip.report/internal/config"
	"github.com/banshee-data/trip.report/internal/db"
	"github.com/banshee-data/trip.report/internal/pipeline"
)

func loadRunConfig(path string) (*config.RunConfig, error) {
	if path == "" {
		return config.DefaultRunConfig(), nil
	}
	return config.LoadRunConfig(path)
}

// runLoad executes one full pipeline run: replace the location reference
// table, stream the trip CSV through cleaning into the trips table, then
// index and rebuild the summary. Stages run strictly in that order; the
// caller is responsible for not starting two runs at once.
func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	tripsPath := fs.String("trips", "", "Path to the trip records CSV (required)")
	zonesPath := fs.String("zones", "", "Path to the taxi zone lookup CSV (required)")
	configPath := fs.String("config", "", "Path to a JSON run config")
	fs.Parse(args)

	if *tripsPath == "" || *zonesPath == "" {
		fs.Usage()
		return fmt.Errorf("load: -trips and -zones are required")
	}

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer database.Close()

	// SIGINT/SIGTERM abort the run between batches, never mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zones, err := os.Open(*zonesPath)
	if err != nil {
		return fmt.Errorf("failed to open zone lookup: %v", err)
	}
	defer zones.Close()

	locations, err := pipeline.LoadLocations(ctx, database, zones)
	if err != nil {
		return fmt.Errorf("location load failed: %v", err)
	}

	trips, err := os.Open(*tripsPath)
	if err != nil {
		return fmt.Errorf("failed to open trip records: %v", err)
	}
	defer trips.Close()

	loader := &pipeline.Loader{
		DB:    database,
		Audit: pipeline.NewAuditLog(cfg.GetAuditPath()),
		Rules: &pipeline.RuleEngine{
			ExpectedYear: cfg.GetExpectedYear(),
			MaxDistance:  cfg.GetMaxTripDistanceMiles(),
		},
		ChunkSize: cfg.GetChunkSize(),
	}

	report, err := loader.Run(ctx, trips, locations)
	if err != nil {
		return fmt.Errorf("trip load failed: %v", err)
	}

	if err := database.CreateTripIndexes(ctx); err != nil {
		return fmt.Errorf("index build failed: %v", err)
	}
	if _, err := database.RebuildSummary(ctx); err != nil {
		return fmt.Errorf("summary rebuild failed: %v", err)
	}

	report.LogSummary()
	return nil
}

// runSummarize rebuilds indexes and the summary table from whatever is
// already loaded. On a fresh database this is a no-op producing an empty
// summary, not an error.
func runSummarize(args []string) error {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a JSON run config")
	fs.Parse(args)

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.CreateTripIndexes(ctx); err != nil {
		return fmt.Errorf("index build failed: %v", err)
	}
	buckets, err := database.RebuildSummary(ctx)
	if err != nil {
		return fmt.Errorf("summary rebuild failed: %v", err)
	}

	log.Printf("summarize complete: %d buckets", buckets)
	return nil
}

// runServe starts the read-only query API with the admin debug surface
// mounted, and shuts down gracefully on SIGINT/SIGTERM.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	configPath := fs.String("config", "", "Path to a JSON run config")
	fs.Parse(args)

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	database.AttachAdminRoutes(mux)
	mux.Handle("/api/", api.NewServer(database).ServeMux())

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("query API listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %v", err)
	}

	log.Printf("graceful shutdown complete")
	return nil
}
