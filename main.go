// trip-report is the batch pipeline and query server for the NYC taxi
// trip dataset: it loads and cleans chunked CSV exports into SQLite,
// keeps a per-row audit trail of everything it rejects, pre-aggregates a
// summary table, and serves sub-second analytical queries over it.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/trip.report/internal/version"
)

const usage = `Usage: trip-report <command> [flags]

Commands:
  load       Load the zone lookup and trip CSVs, then index and summarize
  summarize  Rebuild indexes and the trip_summary table from loaded data
  serve      Serve the read-only query API
  version    Print build information

Run 'trip-report <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "load":
		err = runLoad(os.Args[2:])
	case "summarize":
		err = runSummarize(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version":
		fmt.Printf("trip-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}
