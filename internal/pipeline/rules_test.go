package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trip.report/internal/db"
)

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }
func intPtr(i int64) *int64          { return &i }

func testEngine() *RuleEngine {
	return &RuleEngine{ExpectedYear: 2019, MaxDistance: 100}
}

// validRecord returns a record that passes every rule.
func validRecord(id int64) Record {
	pickup := time.Date(2019, 1, 5, 10, 0, 0, 0, time.UTC)
	dropoff := pickup.Add(12 * time.Minute)
	return Record{
		PickupText: pickup.Format(db.TimeLayout),
		Trip: db.Trip{
			TripID:          id,
			PickupDatetime:  timePtr(pickup),
			DropoffDatetime: timePtr(dropoff),
			PULocationID:    intPtr(142),
			DOLocationID:    intPtr(236),
			TripDistance:    floatPtr(2.5),
			FareAmount:      floatPtr(12.0),
			TotalAmount:     floatPtr(15.3),
		},
	}
}

func TestApplyAcceptsValidRow(t *testing.T) {
	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{validRecord(0)}, stats)

	require.Len(t, accepted, 1)
	assert.Empty(t, rejected)
	assert.Equal(t, int64(0), accepted[0].TripID)
}

func TestApplyRejectsWrongYear(t *testing.T) {
	rec := validRecord(0)
	pickup := time.Date(2018, 12, 31, 23, 59, 0, 0, time.UTC)
	rec.Trip.PickupDatetime = &pickup
	rec.PickupText = "2018-12-31 23:59:00"

	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{rec}, stats)

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonOutOfRangeYear, rejected[0].Reason)
	assert.Equal(t, "2018-12-31 23:59:00", rejected[0].Value)
}

func TestApplyRejectsUnparsableTimestamp(t *testing.T) {
	// A nil pickup timestamp (unparsable in the source) always fails
	// the year rule.
	rec := validRecord(7)
	rec.Trip.PickupDatetime = nil
	rec.PickupText = "not-a-date"

	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{rec}, stats)

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonOutOfRangeYear, rejected[0].Reason)
	assert.Equal(t, "not-a-date", rejected[0].Value)
	assert.Equal(t, int64(7), rejected[0].TripID)
}

func TestApplyDistanceBoundaries(t *testing.T) {
	engine := testEngine()

	cases := []struct {
		name     string
		distance float64
		reason   Reason // empty means accepted
	}{
		{"exactly zero rejected", 0, ReasonZeroNegativeDistance},
		{"negative rejected", -1.2, ReasonZeroNegativeDistance},
		{"normal accepted", 2.5, ""},
		{"at threshold accepted", 100, ""},
		{"just above threshold rejected", 100.01, ReasonExtremeDistance},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord(0)
			rec.Trip.TripDistance = floatPtr(tc.distance)

			stats := NewRunStats()
			accepted, rejected := engine.Apply([]Record{rec}, stats)

			if tc.reason == "" {
				assert.Len(t, accepted, 1)
				assert.Empty(t, rejected)
			} else {
				assert.Empty(t, accepted)
				require.Len(t, rejected, 1)
				assert.Equal(t, tc.reason, rejected[0].Reason)
			}
		})
	}
}

func TestApplyRejectsZeroNegativeFare(t *testing.T) {
	rec := validRecord(0)
	rec.Trip.FareAmount = floatPtr(-4.5)

	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{rec}, stats)

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonZeroNegativeFare, rejected[0].Reason)
	assert.Equal(t, "-4.5", rejected[0].Value)
}

func TestApplyFirstMatchingRuleWins(t *testing.T) {
	// Fails both the distance and fare rules; only the earlier rule's
	// reason is recorded.
	rec := validRecord(0)
	rec.Trip.TripDistance = floatPtr(0)
	rec.Trip.FareAmount = floatPtr(-1)

	stats := NewRunStats()
	_, rejected := testEngine().Apply([]Record{rec}, stats)

	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonZeroNegativeDistance, rejected[0].Reason)
	assert.Equal(t, int64(0), stats.Excluded[ReasonZeroNegativeFare])
}

func TestApplyDuplicateKeepsFirstOccurrence(t *testing.T) {
	first := validRecord(0)
	dup := validRecord(1)
	third := validRecord(2)
	third.Trip.TotalAmount = floatPtr(99.9) // different tuple, not a dup

	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{first, dup, third}, stats)

	require.Len(t, accepted, 2)
	assert.Equal(t, int64(0), accepted[0].TripID)
	assert.Equal(t, int64(2), accepted[1].TripID)
	require.Len(t, rejected, 1)
	assert.Equal(t, int64(1), rejected[0].TripID)
	assert.Equal(t, ReasonDuplicateRow, rejected[0].Reason)
}

func TestApplyDuplicateDetectionIsBatchLocal(t *testing.T) {
	engine := testEngine()
	stats := NewRunStats()

	accepted1, rejected1 := engine.Apply([]Record{validRecord(0)}, stats)
	require.Len(t, accepted1, 1)
	require.Empty(t, rejected1)

	// Identical tuple in a later batch survives: the seen-set does not
	// carry across batches.
	accepted2, rejected2 := engine.Apply([]Record{validRecord(1)}, stats)
	assert.Len(t, accepted2, 1)
	assert.Empty(t, rejected2)
}

func TestApplyDroppedRowNotTestedAgainstLaterRules(t *testing.T) {
	// A row dropped by the year rule never reaches the dedup set, so a
	// later identical row is not flagged as a duplicate of it.
	bad := validRecord(0)
	bad.Trip.PickupDatetime = nil
	good := validRecord(1)

	stats := NewRunStats()
	accepted, rejected := testEngine().Apply([]Record{bad, good}, stats)

	assert.Len(t, accepted, 1)
	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonOutOfRangeYear, rejected[0].Reason)
}

func TestHistogramOrderedByDescendingCount(t *testing.T) {
	stats := NewRunStats()
	stats.Excluded[ReasonZeroNegativeFare] = 3
	stats.Excluded[ReasonOutOfRangeYear] = 10
	stats.Excluded[ReasonDuplicateRow] = 7

	hist := stats.Histogram()
	require.Len(t, hist, 3)
	assert.Equal(t, ReasonOutOfRangeYear, hist[0].Reason)
	assert.Equal(t, ReasonDuplicateRow, hist[1].Reason)
	assert.Equal(t, ReasonZeroNegativeFare, hist[2].Reason)
	assert.Equal(t, int64(20), stats.TotalExcluded())
}
