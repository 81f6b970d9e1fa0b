// Command dhis2scan scrapes indicator metadata from a DHIS2 registry and
// reports validation findings as CSV, JSON, or a terminal table.
package main

import (
	"fmt"
	"os"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
