// distance-histogram renders a PNG histogram of trip distances from the
// loaded trips table.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trip.report/internal/db"
)

var (
	dbPath  = flag.String("db", "trip_data.db", "Path to the trip database")
	outPath = flag.String("out", "distance_histogram.png", "Output PNG file")
	bins    = flag.Int("bins", 40, "Number of histogram bins")
	maxDist = flag.Float64("max", 30, "Clip distances above this many miles")
)

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	rows, err := database.Query(`SELECT trip_distance FROM trips WHERE trip_distance IS NOT NULL AND trip_distance <= ?`, *maxDist)
	if err != nil {
		log.Fatalf("failed to query trip distances: %v", err)
	}
	defer rows.Close()

	var values plotter.Values
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			log.Fatalf("failed to scan distance: %v", err)
		}
		values = append(values, d)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("failed to read distances: %v", err)
	}
	if len(values) == 0 {
		log.Fatalf("no trips loaded; run 'trip-report load' first")
	}

	p := plot.New()
	p.Title.Text = "Trip Distance Distribution"
	p.X.Label.Text = "Distance (miles)"
	p.Y.Label.Text = "Trips"

	hist, err := plotter.NewHist(values, *bins)
	if err != nil {
		log.Fatalf("failed to build histogram: %v", err)
	}
	p.Add(hist)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, *outPath); err != nil {
		log.Fatalf("failed to save histogram: %v", err)
	}
	log.Printf("wrote %s (%d trips)", *outPath, len(values))
}
