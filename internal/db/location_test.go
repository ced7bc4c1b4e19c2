package db

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLocations() []Location {
	return []Location{
		{LocationID: 7, Borough: strPtr("Queens"), Zone: strPtr("Astoria")},
		{LocationID: 142, Borough: strPtr("Manhattan"), Zone: strPtr("Lincoln Square East")},
		{LocationID: 143, Borough: strPtr("Manhattan"), Zone: strPtr("Lincoln Square West")},
		{LocationID: 264, Zone: strPtr("Unknown")}, // no borough
	}
}

func TestLocationIndex(t *testing.T) {
	idx := NewLocationIndex(testLocations())

	if idx.Len() != 3 {
		t.Fatalf("expected 3 mapped ids (no-borough row omitted), got %d", idx.Len())
	}
	if b := idx.BoroughOf(142); b == nil || *b != "Manhattan" {
		t.Fatalf("borough of 142: got %v", b)
	}
	if b := idx.BoroughOf(264); b != nil {
		t.Fatalf("no-borough location should resolve to nil, got %q", *b)
	}
	if b := idx.BoroughOf(9999); b != nil {
		t.Fatalf("unknown id should resolve to nil, got %q", *b)
	}
	if diff := cmp.Diff([]string{"Manhattan", "Queens"}, idx.DistinctBoroughs()); diff != "" {
		t.Fatalf("distinct boroughs (-want +got):\n%s", diff)
	}
}

func TestReplaceLocationsAndBoroughs(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.ReplaceLocations(ctx, testLocations()); err != nil {
		t.Fatalf("ReplaceLocations failed: %v", err)
	}

	boroughs, err := database.Boroughs(ctx)
	if err != nil {
		t.Fatalf("Boroughs failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Manhattan", "Queens"}, boroughs); diff != "" {
		t.Fatalf("boroughs (-want +got):\n%s", diff)
	}

	// A second replace swaps the reference set wholesale.
	if err := database.ReplaceLocations(ctx, []Location{
		{LocationID: 1, Borough: strPtr("Bronx")},
	}); err != nil {
		t.Fatalf("second ReplaceLocations failed: %v", err)
	}
	boroughs, err = database.Boroughs(ctx)
	if err != nil {
		t.Fatalf("Boroughs failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Bronx"}, boroughs); diff != "" {
		t.Fatalf("boroughs after replace (-want +got):\n%s", diff)
	}
}

func TestLoadLocationIndexRoundTrip(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.ReplaceLocations(ctx, testLocations()); err != nil {
		t.Fatalf("ReplaceLocations failed: %v", err)
	}

	idx, err := database.LoadLocationIndex(ctx)
	if err != nil {
		t.Fatalf("LoadLocationIndex failed: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 mapped ids, got %d", idx.Len())
	}
	if b := idx.BoroughOf(7); b == nil || *b != "Queens" {
		t.Fatalf("borough of 7: got %v", b)
	}
}
