// Package db is the SQLite storage layer for trip.report. It owns the
// raw trips table, the location reference table and the derived
// trip_summary table, and exposes the filtered rollup queries the API
// layer serves.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the trip database at path and ensures the
// schema exists. The vendors and ratecode tables are reference data
// seeded outside the pipeline; they are created here so a fresh
// database always has the full schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vendors (
			vendor_id         INTEGER PRIMARY KEY,
			name              TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ratecode (
			rate_code_id      INTEGER PRIMARY KEY,
			value             TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS location (
			location_id       INTEGER PRIMARY KEY,
			borough           TEXT,
			zone              TEXT,
			service_zone      TEXT
		);
		CREATE TABLE IF NOT EXISTS trips (
			trip_id               BIGINT PRIMARY KEY,
			vendor_id             INTEGER,
			pickup_datetime       TIMESTAMP,
			dropoff_datetime      TIMESTAMP,
			passenger_count       INTEGER,
			trip_distance         DOUBLE,
			rate_code_id          INTEGER,
			store_and_fwd_flag    TEXT,
			pu_location_id        INTEGER,
			do_location_id        INTEGER,
			payment_type          INTEGER,
			fare_amount           DOUBLE,
			extra                 DOUBLE,
			mta_tax               DOUBLE,
			tip_amount            DOUBLE,
			tolls_amount          DOUBLE,
			improvement_surcharge DOUBLE,
			total_amount          DOUBLE,
			congestion_surcharge  DOUBLE,
			borough               TEXT
		);
		CREATE TABLE IF NOT EXISTS trip_summary (
			summary_id         INTEGER PRIMARY KEY AUTOINCREMENT,
			date               TEXT,
			hour               INTEGER,
			borough            TEXT,
			trip_count         INTEGER,
			total_amount       DOUBLE,
			total_distance     DOUBLE,
			total_duration_hrs DOUBLE
		);
		CREATE INDEX IF NOT EXISTS idx_summary_lookup ON trip_summary(date, borough);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db}, nil
}
