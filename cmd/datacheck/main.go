// Command datacheck loads a dataset, runs normalization and image
// resolution, and prints a summary without touching the model. Useful for
// validating an export before a full evaluation run.
//
// Usage: datacheck <data-dir> [csv-glob]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"plankton-eval/internal/dataset"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data-dir> [csv-glob]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nValidates a dataset export: schema, labels, image references.\n")
		os.Exit(1)
	}

	dataDir := os.Args[1]
	glob := "*.csv"
	if len(os.Args) >= 3 {
		glob = os.Args[2]
	}

	csvPaths, err := filepath.Glob(filepath.Join(dataDir, glob))
	if err != nil || len(csvPaths) == 0 {
		fmt.Fprintf(os.Stderr, "No CSV files match %s in %s\n", glob, dataDir)
		os.Exit(1)
	}

	raw, err := dataset.Load(csvPaths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d rows from %d files (%d columns)\n", len(raw.Rows), len(csvPaths), len(raw.Columns))

	table, err := dataset.Normalize(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Normalization failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("After normalization: %d rows, %d columns\n", len(table.Rows), len(table.Columns))

	if err := dataset.ResolveImages(table, dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Image resolution failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Image style: %s\n\n", table.Style)

	counts := table.LabelCounts()
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Printf("%d distinct labels:\n", len(labels))
	for _, label := range labels {
		fmt.Printf("  %-32s %6d\n", label, counts[label])
	}
}
