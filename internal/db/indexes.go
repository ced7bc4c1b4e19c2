package db

import (
	"context"
	"fmt"

	"github.com/banshee-data/trip.report/internal/monitoring"
)

// CreateTripIndexes builds the secondary indexes the summarizer and the
// query layer depend on. Idempotent: IF NOT EXISTS makes re-invocation on
// an already indexed store a no-op. Must run after a load completes for
// that run's rows to be covered.
func (db *DB) CreateTripIndexes(ctx context.Context) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_trips_pickup ON trips(pickup_datetime)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_pu_location ON trips(pu_location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_do_location ON trips(do_location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_borough_pickup ON trips(borough, pickup_datetime)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		monitoring.Logf("index builder: %s", stmt)
	}

	return nil
}
