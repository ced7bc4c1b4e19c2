package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAuditLogResetTruncatesToHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.csv")
	audit := NewAuditLog(path)

	if err := audit.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := audit.Append([]Rejection{
		{TripID: 3, Reason: ReasonZeroNegativeFare, Value: "-2.5"},
		{TripID: 9, Reason: ReasonDuplicateRow, Value: "a|b|1|2|3|4"},
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := audit.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), lines)
	}
	if lines[0] != "trip_id,reason,value" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "3,zero_negative_fare,-2.5" {
		t.Fatalf("unexpected first entry: %q", lines[1])
	}

	// A second Reset starts the log over rather than accumulating.
	if err := audit.Reset(); err != nil {
		t.Fatalf("second Reset failed: %v", err)
	}
	if err := audit.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read audit file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "trip_id,reason,value" {
		t.Fatalf("expected header-only file after reset, got %q", got)
	}
}

func TestAuditLogResetFailsOnUnwritableDestination(t *testing.T) {
	audit := NewAuditLog(filepath.Join(t.TempDir(), "missing", "excluded.csv"))
	if err := audit.Reset(); err == nil {
		t.Fatal("expected Reset to fail for unwritable destination")
	}
}

func TestAuditLogAppendBeforeResetFails(t *testing.T) {
	audit := NewAuditLog(filepath.Join(t.TempDir(), "excluded.csv"))
	if err := audit.Append([]Rejection{{TripID: 1, Reason: ReasonDuplicateRow}}); err == nil {
		t.Fatal("expected Append before Reset to fail")
	}
}
