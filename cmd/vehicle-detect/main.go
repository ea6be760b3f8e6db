package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
	"github.com/banshee-data/vehicle.detect/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdin, os.Stdout, os.Stderr).dispatch(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app carries the process streams so handlers can be driven from tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// httpClient overrides the download transport when set.
	httpClient httputil.HTTPClient
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) dispatch(ctx context.Context, args []string) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return a.handleRun(ctx, args)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "run":
		return a.handleRun(ctx, rest)
	case "download":
		return a.handleDownload(ctx, rest)
	case "filter":
		return a.handleFilter(rest)
	case "report":
		return a.handleReport(rest)
	case "history":
		return a.handleHistory(ctx, rest)
	case "migrate":
		return a.handleMigrate(rest)
	case "version":
		fmt.Fprintf(a.stdout, "vehicle-detect version %s\n", version.String())
		return 0
	case "help":
		a.printUsage()
		return 0
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		a.printUsage()
		return 1
	}
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, `vehicle-detect - Vehicle object detection launcher

Usage: vehicle-detect [command] [options]

Commands:
  run        Resolve weights and start the tracking pipeline (default)
  download   Download COCO pretrained weights
  filter     Keep only vehicle detections in a detection stream
  report     Summarize a detection stream per class (HTML/PNG)
  history    Show recent launches and downloads
  migrate    Manage the history database schema
  version    Show vehicle-detect version
  help       Show this help message

Run Flags:
  --video <file>       Path to video file; omit to use the webcam
  --camid <n>          Webcam id (default: 0)
  --save               Save detection results
  --config <file>      Configuration file (default: vehicle-detect.json)
  --pretrained <dir>   Weights directory (default: ./pretrained)
  --dry-run            Print the pipeline command without running it
  --debug              Enable debug logging

Examples:
  # Run with webcam
  vehicle-detect

  # Run with a video file and save results
  vehicle-detect --video video.mp4 --save

  # Use a different webcam
  vehicle-detect --camid 1

  # Download the small model
  vehicle-detect download --model yolox_s

  # Browse the launch history in a browser
  vehicle-detect history --serve localhost:8090`)
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseFlags parses args and converts the result into an exit code when
// parsing should stop the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadConfig reads the launcher config named by --config, or the default
// file when present.
func (a *app) loadConfig(fs *flag.FlagSet, path string) (*config.LauncherConfig, bool) {
	cfg, err := config.LoadOrDefault(path, flagWasSet(fs, "config"))
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to load config: %v\n", err)
		return nil, false
	}
	return cfg, true
}

func enableDebug(on bool) {
	monitoring.EnableDebug(on)
	if on {
		monitoring.Debugf("debug logging enabled")
	}
}
