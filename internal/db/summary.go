package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/banshee-data/trip.report/internal/monitoring"
)

// SummaryRecord is one (date, hour, borough) aggregate bucket of the
// trip_summary table.
type SummaryRecord struct {
	SummaryID        int64   `json:"summary_id"`
	Date             string  `json:"date"` // YYYY-MM-DD
	Hour             int     `json:"hour"` // 0-23
	Borough          string  `json:"borough"`
	TripCount        int64   `json:"trip_count"`
	TotalAmount      float64 `json:"total_amount"`
	TotalDistance    float64 `json:"total_distance"`
	TotalDurationHrs float64 `json:"total_duration_hrs"`
}

// RebuildSummary recomputes trip_summary from the full trips table:
// delete-all then reinsert, in one transaction, so a crash mid-rebuild
// leaves either the old complete summary or the new one. Rows with a
// null borough are stored in trips but contribute to no bucket.
//
// Durations are summed mechanically; a dropoff before its pickup
// contributes a negative duration. Filtering anomalous durations is the
// cleaning rules' job, not the summarizer's.
func (db *DB) RebuildSummary(ctx context.Context) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trip_summary`); err != nil {
		return 0, fmt.Errorf("failed to clear trip_summary: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO trip_summary (
			date, hour, borough, trip_count, total_amount,
			total_distance, total_duration_hrs
		)
		SELECT
			date(pickup_datetime) AS date,
			CAST(strftime('%H', pickup_datetime) AS INTEGER) AS hour,
			borough,
			COUNT(*) AS trip_count,
			SUM(total_amount) AS total_amount,
			SUM(trip_distance) AS total_distance,
			SUM((julianday(dropoff_datetime) - julianday(pickup_datetime)) * 24) AS total_duration_hrs
		FROM trips
		WHERE borough IS NOT NULL
		GROUP BY date, hour, borough
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild trip_summary: %w", err)
	}

	inserted, _ := result.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	monitoring.Logf("summarizer: rebuilt trip_summary with %d buckets", inserted)
	return inserted, nil
}

// SummaryStats is the headline aggregate over the summary table.
type SummaryStats struct {
	TotalTrips  int64   `json:"total_trips"`
	Revenue     float64 `json:"revenue"`
	AvgSpeed    float64 `json:"avg_speed"`    // miles per hour
	AvgDistance float64 `json:"avg_distance"` // miles per trip
}

// Stats returns filtered totals from trip_summary. Average speed is
// total distance over total duration and average distance is total
// distance over trip count, both zero when the denominator is.
func (db *DB) Stats(ctx context.Context, f TripFilter) (*SummaryStats, error) {
	clause, args := f.whereSummary()
	query := `
		SELECT
			COALESCE(SUM(trip_count), 0),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_distance), 0),
			COALESCE(SUM(total_duration_hrs), 0)
		FROM trip_summary
		WHERE 1=1` + clause

	var trips int64
	var amount, distance, duration float64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&trips, &amount, &distance, &duration); err != nil {
		return nil, fmt.Errorf("failed to query summary stats: %w", err)
	}

	stats := &SummaryStats{
		TotalTrips: trips,
		Revenue:    amount,
	}
	if duration != 0 {
		stats.AvgSpeed = distance / duration
	}
	if trips != 0 {
		stats.AvgDistance = distance / float64(trips)
	}
	return stats, nil
}

// HourCount is the trip volume for one hour of day.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// HourlyPattern returns filtered trip counts grouped by hour of day.
func (db *DB) HourlyPattern(ctx context.Context, f TripFilter) ([]HourCount, error) {
	clause, args := f.whereSummary()
	query := `
		SELECT hour, SUM(trip_count)
		FROM trip_summary
		WHERE 1=1` + clause + `
		GROUP BY hour
		ORDER BY hour
	`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly pattern: %w", err)
	}
	defer rows.Close()

	var out []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		out = append(out, hc)
	}
	return out, rows.Err()
}

// DateCount is the trip volume for one calendar date.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DailyPattern returns filtered trip counts grouped by date.
func (db *DB) DailyPattern(ctx context.Context, f TripFilter) ([]DateCount, error) {
	clause, args := f.whereSummary()
	query := `
		SELECT date, SUM(trip_count)
		FROM trip_summary
		WHERE 1=1` + clause + `
		GROUP BY date
		ORDER BY date
	`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily pattern: %w", err)
	}
	defer rows.Close()

	var out []DateCount
	for rows.Next() {
		var dc DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// BoroughCount is the trip volume for one borough.
type BoroughCount struct {
	Borough string `json:"borough"`
	Count   int64  `json:"count"`
}

// BoroughPattern returns filtered trip counts grouped by borough.
func (db *DB) BoroughPattern(ctx context.Context, f TripFilter) ([]BoroughCount, error) {
	clause, args := f.whereSummary()
	query := `
		SELECT borough, SUM(trip_count)
		FROM trip_summary
		WHERE 1=1` + clause + `
		GROUP BY borough
		ORDER BY SUM(trip_count) DESC
	`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query borough pattern: %w", err)
	}
	defer rows.Close()

	var out []BoroughCount
	for rows.Next() {
		var bc BoroughCount
		if err := rows.Scan(&bc.Borough, &bc.Count); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}

// SummaryRecords returns the full summary table ordered by bucket key.
// Used by tests and the chart tools.
func (db *DB) SummaryRecords(ctx context.Context) ([]SummaryRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT summary_id, date, hour, borough, trip_count,
		       total_amount, total_distance, total_duration_hrs
		FROM trip_summary
		ORDER BY date, hour, borough
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip_summary: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var r SummaryRecord
		var amount, distance, duration sql.NullFloat64
		if err := rows.Scan(&r.SummaryID, &r.Date, &r.Hour, &r.Borough, &r.TripCount, &amount, &distance, &duration); err != nil {
			return nil, err
		}
		r.TotalAmount = amount.Float64
		r.TotalDistance = distance.Float64
		r.TotalDurationHrs = duration.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}
