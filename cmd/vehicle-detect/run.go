package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/banshee-data/vehicle.detect/internal/acquire"
	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/db"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/launch"
	"github.com/banshee-data/vehicle.detect/internal/launcher"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

func (a *app) handleRun(ctx context.Context, args []string) int {
	fs := a.newFlagSet("run")
	video := fs.String("video", "", "Path to video file (omit to use the webcam)")
	camID := fs.Int("camid", 0, "Webcam id")
	save := fs.Bool("save", false, "Save detection results")
	configPath := fs.String("config", config.DefaultConfigPath, "Configuration file path")
	pretrained := fs.String("pretrained", "", "Weights directory (overrides config)")
	exps := fs.String("exps", "", "Experiment directory (overrides config)")
	python := fs.String("python", "", "Python interpreter (overrides config)")
	dryRun := fs.Bool("dry-run", false, "Print the pipeline command without running it")
	noLedger := fs.Bool("no-ledger", false, "Do not record this run in the history database")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(a.stderr, "Unexpected arguments: %v\n", fs.Args())
		return 2
	}
	enableDebug(*debug)

	cfg, ok := a.loadConfig(fs, *configPath)
	if !ok {
		return 1
	}
	config.Override(&cfg.PretrainedDir, *pretrained)
	config.Override(&cfg.ExpsDir, *exps)
	config.Override(&cfg.Python, *python)

	l := launcher.New(cfg, a.stdin, a.stdout)
	l.Fetcher = a.downloader(cfg)

	if path := cfg.GetLedgerPath(); path != "" && !*noLedger {
		ledger, err := db.OpenLedger(path)
		if err != nil {
			monitoring.Logf("history disabled: %v", err)
		} else {
			defer ledger.Close()
			l.Ledger = ledger
		}
	}

	opts := launcher.Options{Mode: launch.ModeWebcam, CameraID: *camID, Save: *save, DryRun: *dryRun}
	if *video != "" {
		opts.Mode = launch.ModeVideo
		opts.VideoPath = *video
	}

	return launcher.ExitCode(l.Run(ctx, opts))
}

func (a *app) httpClientFor(cfg *config.LauncherConfig) httputil.HTTPClient {
	if a.httpClient != nil {
		return a.httpClient
	}
	return httputil.NewStandardClient(&http.Client{Timeout: cfg.GetDownloadTimeout()})
}

func (a *app) downloader(cfg *config.LauncherConfig) *acquire.Downloader {
	return acquire.NewDownloader(a.httpClientFor(cfg), acquire.NewTerminalProgress(a.stdout))
}
