package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/trip.report/internal/db"

	"github.com/banshee-data/trip.report/internal/monitoring"
)

// ParseLocations reads the taxi zone lookup CSV. Columns are positional
// (location id, borough, zone, service zone), matching the reference
// export. Any malformed row fails the whole parse: downstream enrichment
// needs a complete mapping, so a partial reference table is worse than
// none.
func ParseLocations(r io.Reader) ([]db.Location, error) {
	csvr := csv.NewReader(r)

	header, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read zone lookup header: %w", err)
	}
	if len(header) != 4 {
		return nil, fmt.Errorf("zone lookup has %d columns, want 4", len(header))
	}

	var locations []db.Location
	for line := 2; ; line++ {
		fields, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("zone lookup line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("zone lookup line %d: bad location id %q: %w", line, fields[0], err)
		}

		loc := db.Location{LocationID: id}
		if s := strings.TrimSpace(fields[1]); s != "" {
			loc.Borough = &s
		}
		if s := strings.TrimSpace(fields[2]); s != "" {
			loc.Zone = &s
		}
		if s := strings.TrimSpace(fields[3]); s != "" {
			loc.ServiceZone = &s
		}
		locations = append(locations, loc)
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("zone lookup is empty")
	}

	return locations, nil
}

// LoadLocations parses the zone lookup source, replaces the location
// table wholesale and returns the in-memory index used for enrichment.
func LoadLocations(ctx context.Context, database *db.DB, r io.Reader) (*db.LocationIndex, error) {
	locations, err := ParseLocations(r)
	if err != nil {
		return nil, err
	}

	if err := database.ReplaceLocations(ctx, locations); err != nil {
		return nil, fmt.Errorf("failed to replace location table: %w", err)
	}

	idx := db.NewLocationIndex(locations)
	monitoring.Logf("locations loaded: %d zones, %d with boroughs", len(locations), idx.Len())
	return idx, nil
}
