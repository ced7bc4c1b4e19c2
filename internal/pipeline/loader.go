package pipeline

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trip.report/internal/db"
	"github.com/banshee-data/trip.report/internal/monitoring"
)

// Loader streams the trip source in fixed-size chunks and drives the
// full per-batch sequence: assign ids, parse, enrich, clean, audit,
// persist. One Loader runs one load at a time; callers enforce mutual
// exclusion across runs.
type Loader struct {
	DB        *db.DB
	Audit     *AuditLog
	Rules     *RuleEngine
	ChunkSize int
}

// RunReport is what a completed load run tells the operator.
type RunReport struct {
	RunID         string        `json:"run_id"`
	RowsProcessed int64         `json:"rows_processed"`
	RowsLoaded    int64         `json:"rows_loaded"`
	Exclusions    []ReasonCount `json:"exclusions"`
	Profile       *Profile      `json:"profile"`
	Elapsed       time.Duration `json:"elapsed"`
}

// LogSummary writes the run report through the package logger.
func (r *RunReport) LogSummary() {
	monitoring.Logf("load run %s complete in %s", r.RunID, r.Elapsed.Round(time.Millisecond))
	monitoring.Logf("  rows processed: %d", r.RowsProcessed)
	monitoring.Logf("  rows loaded:    %d", r.RowsLoaded)
	for _, rc := range r.Exclusions {
		monitoring.Logf("  excluded %-22s %d", rc.Reason, rc.Count)
	}
	if r.Profile != nil && r.Profile.Distance.Count > 0 {
		monitoring.Logf("  distance miles: mean=%.2f sd=%.2f median=%.2f",
			r.Profile.Distance.Mean, r.Profile.Distance.StdDev, r.Profile.Distance.Median)
		monitoring.Logf("  fare dollars:   mean=%.2f sd=%.2f median=%.2f",
			r.Profile.Fare.Mean, r.Profile.Fare.StdDev, r.Profile.Fare.Median)
	}
}

// Run streams the trip CSV through the pipeline. The first batch
// replaces the trips table, later batches append, so running twice on
// identical input yields identical storage. Cancellation is checked
// between batches only; a batch that has started its writes always
// finishes them.
func (l *Loader) Run(ctx context.Context, trips io.Reader, locations *db.LocationIndex) (*RunReport, error) {
	start := time.Now()
	runID := uuid.New().String()
	monitoring.Logf("load run %s starting (chunk size %d)", runID, l.ChunkSize)

	if err := l.Audit.Reset(); err != nil {
		return nil, fmt.Errorf("audit log reset failed: %w", err)
	}
	defer l.Audit.Close()

	csvr := csv.NewReader(bufio.NewReader(trips))
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read trip header: %w", err)
	}
	cols := headerIndex(header)

	stats := NewRunStats()
	var assigner RowIDAssigner
	var distances, fares []float64
	firstBatch := true

	for {
		// Abort point between batches: never mid-write, so a cancelled
		// run leaves storage at a batch boundary.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load run %s aborted: %w", runID, err)
		}

		batch, err := l.readChunk(csvr)
		if err != nil {
			return nil, fmt.Errorf("failed to read trip chunk: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		firstID := assigner.AssignBlock(len(batch))
		records := make([]Record, len(batch))
		for i, fields := range batch {
			rec := parseRecord(cols, fields)
			rec.Trip.TripID = firstID + int64(i)
			if rec.Trip.PULocationID != nil {
				rec.Trip.Borough = locations.BoroughOf(*rec.Trip.PULocationID)
			}
			records[i] = rec
		}

		accepted, rejected := l.Rules.Apply(records, stats)

		if err := l.Audit.Append(rejected); err != nil {
			return nil, fmt.Errorf("load run %s: %w", runID, err)
		}

		if err := l.DB.InsertTripBatch(ctx, accepted, firstBatch); err != nil {
			return nil, fmt.Errorf("load run %s: failed to persist batch: %w", runID, err)
		}
		firstBatch = false

		stats.Processed += int64(len(batch))
		stats.Loaded += int64(len(accepted))
		for _, t := range accepted {
			if t.TripDistance != nil {
				distances = append(distances, *t.TripDistance)
			}
			if t.FareAmount != nil {
				fares = append(fares, *t.FareAmount)
			}
		}

		monitoring.Logf("load run %s: %d rows processed, %d loaded", runID, stats.Processed, stats.Loaded)
	}

	report := &RunReport{
		RunID:         runID,
		RowsProcessed: stats.Processed,
		RowsLoaded:    stats.Loaded,
		Exclusions:    stats.Histogram(),
		Profile:       NewProfile(distances, fares),
		Elapsed:       time.Since(start),
	}
	return report, nil
}

// readChunk reads up to ChunkSize rows, returning a short (possibly
// empty) chunk at end of input.
func (l *Loader) readChunk(csvr *csv.Reader) ([][]string, error) {
	chunk := make([][]string, 0, l.ChunkSize)
	for len(chunk) < l.ChunkSize {
		fields, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, fields)
	}
	return chunk, nil
}
