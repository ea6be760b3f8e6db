package main

import (
	"fmt"
	"os"

	"github.com/banshee-data/vehicle.detect/internal/detect"
	"github.com/banshee-data/vehicle.detect/internal/report"
	"github.com/banshee-data/vehicle.detect/internal/security"
)

func (a *app) handleReport(args []string) int {
	fs := a.newFlagSet("report")
	in := fs.String("in", "-", "Detection stream to read (- for stdin)")
	htmlPath := fs.String("html", "", "Write an HTML chart page to this path")
	pngPath := fs.String("png", "", "Write a PNG bar chart to this path")
	title := fs.String("title", "Vehicle detections", "Report title")
	all := fs.Bool("all", false, "Include every class, not only vehicles")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	for _, p := range []string{*htmlPath, *pngPath} {
		if p == "" {
			continue
		}
		if err := security.ValidateReportPath(p); err != nil {
			fmt.Fprintf(a.stderr, "Invalid output path: %v\n", err)
			return 1
		}
	}

	r, closeIn, err := a.openInput(*in)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open input: %v\n", err)
		return 1
	}
	defer closeIn()

	var keep *detect.ClassSet
	if !*all {
		v := detect.Vehicles()
		keep = &v
	}
	summary, err := detect.SummarizeStream(r, keep)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to read detections: %v\n", err)
		return 1
	}

	a.printSummary(summary)

	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			fmt.Fprintf(a.stderr, "Failed to create %s: %v\n", *htmlPath, err)
			return 1
		}
		err = report.WriteHTML(f, summary, *title)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "Failed to write HTML report: %v\n", err)
			return 1
		}
		fmt.Fprintf(a.stdout, "HTML report written to %s\n", *htmlPath)
	}

	if *pngPath != "" {
		if err := report.WritePNG(*pngPath, summary, *title); err != nil {
			fmt.Fprintf(a.stderr, "Failed to write PNG report: %v\n", err)
			return 1
		}
		fmt.Fprintf(a.stdout, "PNG report written to %s\n", *pngPath)
	}
	return 0
}

func (a *app) printSummary(s detect.Summary) {
	fmt.Fprintf(a.stdout, "Batches: %d  Detections: %d\n", s.Batches, s.Total)
	if len(s.Classes) == 0 {
		return
	}
	fmt.Fprintf(a.stdout, "%-4s %-14s %8s %8s %8s\n", "ID", "CLASS", "COUNT", "MEAN", "STDDEV")
	for _, c := range s.Classes {
		fmt.Fprintf(a.stdout, "%-4d %-14s %8d %8.3f %8.3f\n", c.ClassID, c.Name, c.Count, c.MeanScore, c.StdScore)
	}
}
