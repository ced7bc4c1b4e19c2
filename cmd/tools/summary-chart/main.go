// summary-chart renders the hourly trip volume from trip_summary as a
// standalone HTML bar chart. Handy for eyeballing a load run without
// standing up the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trip.report/internal/db"
)

var (
	dbPath  = flag.String("db", "trip_data.db", "Path to the trip database")
	outPath = flag.String("out", "hourly_volume.html", "Output HTML file")
	start   = flag.String("start", "", "Start date filter (YYYY-MM-DD)")
	end     = flag.String("end", "", "End date filter (YYYY-MM-DD)")
	borough = flag.String("borough", "", "Borough filter (empty for all)")
)

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	filter := db.TripFilter{StartDate: *start, EndDate: *end, Borough: *borough}
	pattern, err := database.HourlyPattern(context.Background(), filter)
	if err != nil {
		log.Fatalf("failed to query hourly pattern: %v", err)
	}
	if len(pattern) == 0 {
		log.Fatalf("trip_summary is empty; run 'trip-report load' first")
	}

	var hours []string
	var counts []opts.BarData
	for _, hc := range pattern {
		hours = append(hours, fmt.Sprintf("%02d:00", hc.Hour))
		counts = append(counts, opts.BarData{Value: hc.Count})
	}

	subtitle := "all boroughs"
	if *borough != "" && *borough != db.AllBoroughs {
		subtitle = *borough
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trip Volume by Hour", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Trip Volume by Hour", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(hours).AddSeries("trips", counts)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d hours)", *outPath, len(hours))
}
