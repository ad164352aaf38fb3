// Command occupancy-report builds the dormitory occupancy report from the
// configured persistent store and archives it in blob storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"dormcore/internal/blob"
	"dormcore/internal/core"
	"dormcore/internal/reports"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("occupancy-report", flag.ContinueOnError)
	formatsFlag := fs.String("formats", "json", "comma-separated artifact formats (json,csv)")
	dryRun := fs.Bool("dry-run", false, "print the report instead of archiving it")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		return 1
	}
	service := core.NewService(store)

	var formats []reports.Format
	for _, raw := range strings.Split(*formatsFlag, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		formats = append(formats, reports.Format(raw))
	}

	if *dryRun {
		exporter := reports.NewExporter(service, blob.NewMemory(), nil)
		report, err := exporter.BuildOccupancyReport(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build report: %v\n", err)
			return 1
		}
		fmt.Printf("occupancy report %s: %d dormitories, %d/%d places occupied\n",
			report.ID, len(report.Dormitories), report.TotalOccupied, report.TotalCapacity)
		return 0
	}

	blobStore, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open blob store: %v\n", err)
		return 1
	}
	exporter := reports.NewExporter(service, blobStore, nil)
	report, artifacts, err := exporter.Export(ctx, formats...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export report: %v\n", err)
		return 1
	}
	fmt.Printf("occupancy report %s archived (%d/%d places occupied)\n",
		report.ID, report.TotalOccupied, report.TotalCapacity)
	for _, artifact := range artifacts {
		fmt.Printf("  %s (%s, %d bytes)\n", artifact.Key, artifact.Format, artifact.SizeBytes)
	}
	return 0
}
