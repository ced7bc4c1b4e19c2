// Package pipeline implements the batch ingest core: chunked CSV
// streaming, row id assignment, typed parsing, borough enrichment,
// cleaning rules and the rejection audit trail.
package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/trip.report/internal/db"
)

// columnRenames maps the raw TLC column headers onto the internal
// schema. Headers not listed pass through lowercased.
var columnRenames = map[string]string{
	"VendorID":              "vendor_id",
	"tpep_pickup_datetime":  "pickup_datetime",
	"tpep_dropoff_datetime": "dropoff_datetime",
	"PULocationID":          "pu_location_id",
	"DOLocationID":          "do_location_id",
	"RatecodeID":            "rate_code_id",
}

// headerIndex maps internal column names to their position in the CSV
// header, applying the renames.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if renamed, ok := columnRenames[name]; ok {
			name = renamed
		} else {
			name = strings.ToLower(name)
		}
		cols[name] = i
	}
	return cols
}

// Record is one input row after typed coercion. PickupText keeps the raw
// timestamp value so rejections can report exactly what the source said.
type Record struct {
	Trip       db.Trip
	PickupText string
}

func field(cols map[string]int, fields []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func parseIntField(s string) *int64 {
	if s == "" {
		return nil
	}
	// TLC exports sometimes carry integer columns as "1.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int64(f)
		return &v
	}
	return nil
}

func parseFloatField(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

var timeLayouts = []string{
	db.TimeLayout,
	"2006-01-02T15:04:05",
	"01/02/2006 03:04:05 PM",
}

// parseTimeField coerces a timestamp string, returning nil for anything
// unparsable. Malformed timestamps are a data-quality defect handled by
// the year rule, never a parse error.
func parseTimeField(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseStringField(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseRecord coerces one CSV row into a typed Record. It never fails:
// every field is either a valid typed value or a null sentinel, and the
// cleaning rules decide the row's fate from there.
func parseRecord(cols map[string]int, fields []string) Record {
	pickupText := field(cols, fields, "pickup_datetime")
	return Record{
		PickupText: pickupText,
		Trip: db.Trip{
			VendorID:             parseIntField(field(cols, fields, "vendor_id")),
			PickupDatetime:       parseTimeField(pickupText),
			DropoffDatetime:      parseTimeField(field(cols, fields, "dropoff_datetime")),
			PassengerCount:       parseIntField(field(cols, fields, "passenger_count")),
			TripDistance:         parseFloatField(field(cols, fields, "trip_distance")),
			RateCodeID:           parseIntField(field(cols, fields, "rate_code_id")),
			StoreAndFwdFlag:      parseStringField(field(cols, fields, "store_and_fwd_flag")),
			PULocationID:         parseIntField(field(cols, fields, "pu_location_id")),
			DOLocationID:         parseIntField(field(cols, fields, "do_location_id")),
			PaymentType:          parseIntField(field(cols, fields, "payment_type")),
			FareAmount:           parseFloatField(field(cols, fields, "fare_amount")),
			Extra:                parseFloatField(field(cols, fields, "extra")),
			MTATax:               parseFloatField(field(cols, fields, "mta_tax")),
			TipAmount:            parseFloatField(field(cols, fields, "tip_amount")),
			TollsAmount:          parseFloatField(field(cols, fields, "tolls_amount")),
			ImprovementSurcharge: parseFloatField(field(cols, fields, "improvement_surcharge")),
			TotalAmount:          parseFloatField(field(cols, fields, "total_amount")),
			CongestionSurcharge:  parseFloatField(field(cols, fields, "congestion_surcharge")),
		},
	}
}
