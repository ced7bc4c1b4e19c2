package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/banshee-data/trip.report/internal/db"
)

// Reason identifies why a row was excluded from the trips table.
type Reason string

const (
	ReasonOutOfRangeYear       Reason = "out_of_range_year"
	ReasonZeroNegativeDistance Reason = "zero_negative_distance"
	ReasonExtremeDistance      Reason = "extreme_distance"
	ReasonZeroNegativeFare     Reason = "zero_negative_fare"
	ReasonDuplicateRow         Reason = "duplicate_row"
)

// Reasons lists every reason code in rule order.
var Reasons = []Reason{
	ReasonOutOfRangeYear,
	ReasonZeroNegativeDistance,
	ReasonExtremeDistance,
	ReasonZeroNegativeFare,
	ReasonDuplicateRow,
}

// Rejection is one audit entry: the id the row would have received, the
// first rule it failed, and the offending value stringified.
type Rejection struct {
	TripID int64
	Reason Reason
	Value  string
}

// RunStats accumulates per-reason exclusion counts for one load run. It
// is owned by the caller of the run, not shared process state.
type RunStats struct {
	Processed int64
	Loaded    int64
	Excluded  map[Reason]int64
}

func NewRunStats() *RunStats {
	return &RunStats{Excluded: make(map[Reason]int64)}
}

// TotalExcluded returns the sum of all exclusion counts.
func (s *RunStats) TotalExcluded() int64 {
	var total int64
	for _, n := range s.Excluded {
		total += n
	}
	return total
}

// ReasonCount pairs a reason with its exclusion count.
type ReasonCount struct {
	Reason Reason `json:"reason"`
	Count  int64  `json:"count"`
}

// Histogram returns the exclusion counts ordered by descending count,
// ties broken by rule order.
func (s *RunStats) Histogram() []ReasonCount {
	var out []ReasonCount
	for _, r := range Reasons {
		if n, ok := s.Excluded[r]; ok && n > 0 {
			out = append(out, ReasonCount{Reason: r, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// RuleEngine applies the fixed, ordered set of validity rules to a
// batch. A row is removed at its first failing rule and is never tested
// against later ones, so each dropped row gets exactly one rejection.
type RuleEngine struct {
	// ExpectedYear is the dataset year; pickups outside it (including
	// unparsable pickups, which carry a nil timestamp) are rejected.
	ExpectedYear int
	// MaxDistance flags implausible outliers; distances strictly above
	// it are rejected, a distance exactly at the threshold is accepted.
	MaxDistance float64
}

// dedupKey is the tuple the duplicate rule matches on.
func dedupKey(r Record) string {
	formatID := func(i *int64) string {
		if i == nil {
			return ""
		}
		return strconv.FormatInt(*i, 10)
	}
	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(db.TimeLayout)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		formatTime(r.Trip.PickupDatetime), formatTime(r.Trip.DropoffDatetime),
		formatID(r.Trip.PULocationID), formatID(r.Trip.DOLocationID),
		formatFloat(r.Trip.TripDistance), formatFloat(r.Trip.TotalAmount))
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Apply partitions a batch into accepted trips and rejections, updating
// stats as it goes. Rows must already carry their assigned trip ids.
//
// Duplicate detection is batch-local: the seen-set resets every call, so
// a duplicate in a later chunk of the same input is not caught. This
// matches the source pipeline's chunked dedup and is a documented
// limitation, not an oversight; fixing it would change load counts.
func (e *RuleEngine) Apply(batch []Record, stats *RunStats) ([]db.Trip, []Rejection) {
	accepted := make([]db.Trip, 0, len(batch))
	var rejected []Rejection
	seen := make(map[string]bool, len(batch))

	reject := func(id int64, reason Reason, value string) {
		rejected = append(rejected, Rejection{TripID: id, Reason: reason, Value: value})
		stats.Excluded[reason]++
	}

	for _, r := range batch {
		t := r.Trip

		if t.PickupDatetime == nil || t.PickupDatetime.Year() != e.ExpectedYear {
			reject(t.TripID, ReasonOutOfRangeYear, r.PickupText)
			continue
		}
		if t.TripDistance != nil && *t.TripDistance <= 0 {
			reject(t.TripID, ReasonZeroNegativeDistance, formatFloat(t.TripDistance))
			continue
		}
		if t.TripDistance != nil && *t.TripDistance > e.MaxDistance {
			reject(t.TripID, ReasonExtremeDistance, formatFloat(t.TripDistance))
			continue
		}
		if t.FareAmount != nil && *t.FareAmount <= 0 {
			reject(t.TripID, ReasonZeroNegativeFare, formatFloat(t.FareAmount))
			continue
		}

		key := dedupKey(r)
		if seen[key] {
			reject(t.TripID, ReasonDuplicateRow, key)
			continue
		}
		seen[key] = true

		accepted = append(accepted, t)
	}

	return accepted, rejected
}
