package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/detect"
)

func (a *app) handleFilter(args []string) int {
	fs := a.newFlagSet("filter")
	in := fs.String("in", "-", "Detection stream to read, one JSON batch per line (- for stdin)")
	out := fs.String("out", "-", "Where to write the filtered stream (- for stdout)")
	classes := fs.String("classes", "", "Comma separated class ids to keep (default: vehicles)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	keep := detect.Vehicles()
	if *classes != "" {
		set, err := parseClassList(*classes)
		if err != nil {
			fmt.Fprintf(a.stderr, "Invalid --classes: %v\n", err)
			return 2
		}
		keep = set
	}

	r, closeIn, err := a.openInput(*in)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open input: %v\n", err)
		return 1
	}
	defer closeIn()

	w, closeOut, err := a.openOutput(*out)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open output: %v\n", err)
		return 1
	}

	stats, err := detect.FilterStream(r, w, keep)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Filter failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(a.stderr, "Filtered %d batches: kept %d of %d detections\n", stats.Batches, stats.Out, stats.In)
	return 0
}

func parseClassList(s string) (detect.ClassSet, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return detect.ClassSet{}, fmt.Errorf("%q is not a class id", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return detect.ClassSet{}, fmt.Errorf("no class ids given")
	}
	return detect.NewClassSet(ids...)
}

func (a *app) openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return a.stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func (a *app) openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
