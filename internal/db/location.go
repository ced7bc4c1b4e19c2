package db

import (
	"context"
	"fmt"
	"sort"
)

// Location is one row of the taxi zone reference table.
type Location struct {
	LocationID  int64   `json:"location_id"`
	Borough     *string `json:"borough"`
	Zone        *string `json:"zone"`
	ServiceZone *string `json:"service_zone"`
}

// ReplaceLocations replaces the contents of the location table wholesale.
// Enrichment correctness depends on a complete mapping, so the swap is a
// single transaction: either the new reference set lands in full or the
// old one stays.
func (db *DB) ReplaceLocations(ctx context.Context, locations []Location) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM location`); err != nil {
		return fmt.Errorf("failed to clear location table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO location (location_id, borough, zone, service_zone)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, loc := range locations {
		if _, err := stmt.ExecContext(ctx, loc.LocationID, loc.Borough, loc.Zone, loc.ServiceZone); err != nil {
			return fmt.Errorf("failed to insert location %d: %w", loc.LocationID, err)
		}
	}

	return tx.Commit()
}

// LocationIndex is the in-memory id to borough mapping used to enrich
// trips during a load run. It is built once per run and read-only after.
type LocationIndex struct {
	boroughs map[int64]string
}

// NewLocationIndex builds an index over the given reference rows.
// Locations without a borough value are omitted, so lookups against them
// resolve to unknown.
func NewLocationIndex(locations []Location) *LocationIndex {
	idx := &LocationIndex{boroughs: make(map[int64]string, len(locations))}
	for _, loc := range locations {
		if loc.Borough != nil {
			idx.boroughs[loc.LocationID] = *loc.Borough
		}
	}
	return idx
}

// BoroughOf returns the borough for a pickup location id, or nil if the
// id has no entry in the reference table.
func (idx *LocationIndex) BoroughOf(locationID int64) *string {
	b, ok := idx.boroughs[locationID]
	if !ok {
		return nil
	}
	return &b
}

// Len returns the number of mapped location ids.
func (idx *LocationIndex) Len() int {
	return len(idx.boroughs)
}

// DistinctBoroughs returns the sorted set of borough values present in
// the index.
func (idx *LocationIndex) DistinctBoroughs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range idx.boroughs {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

// Boroughs returns the distinct borough values from the persisted
// location table, sorted. Used by the query layer.
func (db *DB) Boroughs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT borough FROM location
		WHERE borough IS NOT NULL
		ORDER BY borough
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boroughs: %w", err)
	}
	defer rows.Close()

	var boroughs []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		boroughs = append(boroughs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return boroughs, nil
}

// LoadLocationIndex reads the full location table back into an index.
// Lets the summarize and serve commands reuse a previously loaded
// reference set without re-parsing the source CSV.
func (db *DB) LoadLocationIndex(ctx context.Context) (*LocationIndex, error) {
	rows, err := db.QueryContext(ctx, `SELECT location_id, borough, zone, service_zone FROM location`)
	if err != nil {
		return nil, fmt.Errorf("failed to query location table: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.LocationID, &loc.Borough, &loc.Zone, &loc.ServiceZone); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewLocationIndex(locations), nil
}
