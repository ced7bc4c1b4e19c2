package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TimeLayout is the text format trips store timestamps in. SQLite's
// date() and strftime() functions understand it directly, which the
// summary rebuild relies on.
const TimeLayout = "2006-01-02 15:04:05"

// Trip is one accepted trip row. Pointer fields are nullable in storage;
// a nil PickupDatetime or DropoffDatetime marks a timestamp the loader
// could not parse.
type Trip struct {
	TripID               int64      `json:"trip_id"`
	VendorID             *int64     `json:"vendor_id"`
	PickupDatetime       *time.Time `json:"pickup_datetime"`
	DropoffDatetime      *time.Time `json:"dropoff_datetime"`
	PassengerCount       *int64     `json:"passenger_count"`
	TripDistance         *float64   `json:"trip_distance"`
	RateCodeID           *int64     `json:"rate_code_id"`
	StoreAndFwdFlag      *string    `json:"store_and_fwd_flag"`
	PULocationID         *int64     `json:"pu_location_id"`
	DOLocationID         *int64     `json:"do_location_id"`
	PaymentType          *int64     `json:"payment_type"`
	FareAmount           *float64   `json:"fare_amount"`
	Extra                *float64   `json:"extra"`
	MTATax               *float64   `json:"mta_tax"`
	TipAmount            *float64   `json:"tip_amount"`
	TollsAmount          *float64   `json:"tolls_amount"`
	ImprovementSurcharge *float64   `json:"improvement_surcharge"`
	TotalAmount          *float64   `json:"total_amount"`
	CongestionSurcharge  *float64   `json:"congestion_surcharge"`
	Borough              *string    `json:"borough"`
}

func timeText(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(TimeLayout)
	return &s
}

func parseTimeText(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(TimeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// InsertTripBatch persists one batch of accepted rows inside a single
// transaction. When replace is true (the first batch of a run) the trips
// table is cleared first, so a failed first batch rolls back to the prior
// run's contents rather than leaving the table half-emptied.
func (db *DB) InsertTripBatch(ctx context.Context, trips []Trip, replace bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trips`); err != nil {
			return fmt.Errorf("failed to clear trips table: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (
			trip_id, vendor_id, pickup_datetime, dropoff_datetime,
			passenger_count, trip_distance, rate_code_id, store_and_fwd_flag,
			pu_location_id, do_location_id, payment_type, fare_amount,
			extra, mta_tax, tip_amount, tolls_amount,
			improvement_surcharge, total_amount, congestion_surcharge, borough
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trips {
		_, err := stmt.ExecContext(ctx,
			t.TripID, t.VendorID, timeText(t.PickupDatetime), timeText(t.DropoffDatetime),
			t.PassengerCount, t.TripDistance, t.RateCodeID, t.StoreAndFwdFlag,
			t.PULocationID, t.DOLocationID, t.PaymentType, t.FareAmount,
			t.Extra, t.MTATax, t.TipAmount, t.TollsAmount,
			t.ImprovementSurcharge, t.TotalAmount, t.CongestionSurcharge, t.Borough,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip %d: %w", t.TripID, err)
		}
	}

	return tx.Commit()
}

// TripFilter narrows queries to a date window and/or a borough.
// Dates are inclusive YYYY-MM-DD bounds. AllBoroughs (or an empty
// borough) disables the borough filter; it is the sentinel the dashboard
// sends when no borough is selected.
type TripFilter struct {
	StartDate string
	EndDate   string
	Borough   string
}

// AllBoroughs is the sentinel borough value meaning "no borough filter".
const AllBoroughs = "All Boroughs"

func (f TripFilter) boroughFiltered() bool {
	return f.Borough != "" && f.Borough != AllBoroughs
}

// whereTrips builds filter conditions against the raw trips table, where
// timestamps are full datetime text. The end bound extends to end-of-day
// so an inclusive date range covers the whole final day.
func (f TripFilter) whereTrips() (string, []interface{}) {
	clause := ""
	var args []interface{}
	if f.StartDate != "" {
		clause += " AND pickup_datetime >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		clause += " AND pickup_datetime <= ?"
		args = append(args, f.EndDate+" 23:59:59")
	}
	if f.boroughFiltered() {
		clause += " AND borough = ?"
		args = append(args, f.Borough)
	}
	return clause, args
}

// whereSummary builds filter conditions against trip_summary, where the
// date column is already a bare YYYY-MM-DD value.
func (f TripFilter) whereSummary() (string, []interface{}) {
	clause := ""
	var args []interface{}
	if f.StartDate != "" {
		clause += " AND date >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		clause += " AND date <= ?"
		args = append(args, f.EndDate)
	}
	if f.boroughFiltered() {
		clause += " AND borough = ?"
		args = append(args, f.Borough)
	}
	return clause, args
}

// TripPage is one page of the raw trip listing.
type TripPage struct {
	Trips      []Trip `json:"trips"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalRows  int64  `json:"total_rows"`
	TotalPages int64  `json:"total_pages"`
}

// ListTrips returns one page of raw trips matching the filter, ordered by
// trip id. page is 1-based.
func (db *DB) ListTrips(ctx context.Context, f TripFilter, page, perPage int) (*TripPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	clause, args := f.whereTrips()

	var total int64
	countQuery := `SELECT COUNT(*) FROM trips WHERE 1=1` + clause
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count trips: %w", err)
	}

	query := `
		SELECT trip_id, vendor_id, pickup_datetime, dropoff_datetime,
		       passenger_count, trip_distance, rate_code_id, store_and_fwd_flag,
		       pu_location_id, do_location_id, payment_type, fare_amount,
		       extra, mta_tax, tip_amount, tolls_amount,
		       improvement_surcharge, total_amount, congestion_surcharge, borough
		FROM trips
		WHERE 1=1` + clause + `
		ORDER BY trip_id
		LIMIT ? OFFSET ?
	`
	queryArgs := append(append([]interface{}{}, args...), perPage, (page-1)*perPage)

	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		var pickup, dropoff sql.NullString
		if err := rows.Scan(
			&t.TripID, &t.VendorID, &pickup, &dropoff,
			&t.PassengerCount, &t.TripDistance, &t.RateCodeID, &t.StoreAndFwdFlag,
			&t.PULocationID, &t.DOLocationID, &t.PaymentType, &t.FareAmount,
			&t.Extra, &t.MTATax, &t.TipAmount, &t.TollsAmount,
			&t.ImprovementSurcharge, &t.TotalAmount, &t.CongestionSurcharge, &t.Borough,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		t.PickupDatetime = parseTimeText(pickup)
		t.DropoffDatetime = parseTimeText(dropoff)
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	return &TripPage{
		Trips:      trips,
		Page:       page,
		PerPage:    perPage,
		TotalRows:  total,
		TotalPages: totalPages,
	}, nil
}

// TripIDs returns every trip id in the table in ascending order.
// Primarily a verification hook for the loader's uniqueness guarantee.
func (db *DB) TripIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT trip_id FROM trips ORDER BY trip_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
