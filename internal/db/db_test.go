package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/trip.report/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func strPtr(s string) *string    { return &s }
func i64Ptr(i int64) *int64      { return &i }
func f64Ptr(f float64) *float64  { return &f }
func tPtr(t time.Time) *time.Time { return &t }

// seedTrip builds a trip with the fields the aggregate queries read.
// minutes is the ride duration.
func seedTrip(id int64, pickup time.Time, minutes int, distance, total float64, borough *string) Trip {
	dropoff := pickup.Add(time.Duration(minutes) * time.Minute)
	return Trip{
		TripID:          id,
		PickupDatetime:  tPtr(pickup),
		DropoffDatetime: tPtr(dropoff),
		TripDistance:    f64Ptr(distance),
		FareAmount:      f64Ptr(total - 2),
		TotalAmount:     f64Ptr(total),
		PULocationID:    i64Ptr(142),
		DOLocationID:    i64Ptr(236),
		Borough:         borough,
	}
}

func mustInsert(t *testing.T, database *DB, trips []Trip, replace bool) {
	t.Helper()
	if err := database.InsertTripBatch(context.Background(), trips, replace); err != nil {
		t.Fatalf("InsertTripBatch failed: %v", err)
	}
}

func mustRebuild(t *testing.T, database *DB) int64 {
	t.Helper()
	n, err := database.RebuildSummary(context.Background())
	if err != nil {
		t.Fatalf("RebuildSummary failed: %v", err)
	}
	return n
}
