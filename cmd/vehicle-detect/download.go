package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/acquire"
	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/db"
	"github.com/banshee-data/vehicle.detect/internal/launcher"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
	"github.com/banshee-data/vehicle.detect/internal/timeutil"
)

var rule = strings.Repeat("=", 60)

func (a *app) handleDownload(ctx context.Context, args []string) int {
	fs := a.newFlagSet("download")
	model := fs.String("model", "yolox_x", "Model size to download (yolox_x, yolox_l, yolox_m, yolox_s)")
	output := fs.String("output", "", "Output directory (default: pretrained_dir from config)")
	configPath := fs.String("config", config.DefaultConfigPath, "Configuration file path")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	enableDebug(*debug)

	cfg, ok := a.loadConfig(fs, *configPath)
	if !ok {
		return 1
	}
	dir := *output
	if dir == "" {
		dir = cfg.GetPretrainedDir()
	}

	sources := acquire.DefaultSources()
	src, err := acquire.LookupSource(sources, *model)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: Model %s not found.\n", *model)
		fmt.Fprintf(a.stderr, "Available models: %s\n", strings.Join(acquire.Models(sources), ", "))
		return 1
	}

	fmt.Fprintln(a.stdout, rule)
	fmt.Fprintln(a.stdout, "YOLOX COCO Pretrained Weights Downloader")
	fmt.Fprintln(a.stdout, rule)
	fmt.Fprintf(a.stdout, "\nModel: %s\n", src.Model)
	fmt.Fprintf(a.stdout, "Size: %s\n", src.SizeLabel)
	fmt.Fprintf(a.stdout, "Output directory: %s\n", dir)
	fmt.Fprintln(a.stdout, "\nThese weights are pretrained on COCO and include:")
	fmt.Fprintln(a.stdout, "  - Vehicle classes: car, bus, truck, motorcycle, bicycle, train")
	fmt.Fprintln(a.stdout, "  - Person class and other COCO classes")
	fmt.Fprintf(a.stdout, "\n%s\n\n", rule)

	out := a.downloader(cfg).Fetch(ctx, dir, src)
	a.recordDownload(cfg, out)

	switch out.Status {
	case acquire.StatusAlreadyPresent:
		fmt.Fprintf(a.stdout, "Weights already exist at: %s\n", out.Path)
	case acquire.StatusDownloaded:
		fmt.Fprintln(a.stdout, "Download completed successfully!")
		fmt.Fprintf(a.stdout, "Weights saved to: %s\n", out.Path)
	case acquire.StatusCancelled:
		fmt.Fprintln(a.stdout, "\nDownload cancelled")
		fmt.Fprint(a.stdout, out.Guidance())
		return 1
	default:
		fmt.Fprintf(a.stdout, "\nDownload failed: %v\n\n", out.Err)
		fmt.Fprint(a.stdout, out.Guidance())
		return 1
	}

	a.printManualUsage(cfg, src, out.Path)
	return 0
}

func (a *app) printManualUsage(cfg *config.LauncherConfig, src acquire.Source, weightsPath string) {
	exp := filepath.Join(cfg.GetExpsDir(), src.Model+".py")
	script := cfg.GetDemoScript()
	py := cfg.GetPython()

	fmt.Fprintf(a.stdout, "\n%s\nSetup complete!\n%s\n", rule, rule)
	fmt.Fprintln(a.stdout, "\nYou can now run vehicle detection using:")
	fmt.Fprintf(a.stdout, "  %s %s video \\\n", py, script)
	fmt.Fprintf(a.stdout, "    -f %s \\\n", exp)
	fmt.Fprintf(a.stdout, "    -c %s \\\n", weightsPath)
	fmt.Fprintln(a.stdout, "    --path <your_video.mp4> \\")
	fmt.Fprintln(a.stdout, "    --save_result")
	fmt.Fprintln(a.stdout, "\nOr use webcam:")
	fmt.Fprintf(a.stdout, "  %s %s webcam \\\n", py, script)
	fmt.Fprintf(a.stdout, "    -f %s \\\n", exp)
	fmt.Fprintf(a.stdout, "    -c %s \\\n", weightsPath)
	fmt.Fprintln(a.stdout, "    --camid 0")
}

func (a *app) recordDownload(cfg *config.LauncherConfig, out acquire.Outcome) {
	if out.Status == acquire.StatusAlreadyPresent {
		return
	}
	path := cfg.GetLedgerPath()
	if path == "" {
		return
	}
	ledger, err := db.OpenLedger(path)
	if err != nil {
		monitoring.Logf("history disabled: %v", err)
		return
	}
	defer ledger.Close()

	rec := launcher.AcquisitionRecord(timeutil.RealClock{}.Now(), "", out)
	if _, err := ledger.RecordAcquisition(rec); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}
