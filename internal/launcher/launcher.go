// Package launcher runs one vehicle detection session: resolve or acquire
// weights, pick the experiment file, and hand over to the tracking pipeline.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/vehicle.detect/internal/acquire"
	"github.com/banshee-data/vehicle.detect/internal/config"
	"github.com/banshee-data/vehicle.detect/internal/db"
	"github.com/banshee-data/vehicle.detect/internal/experiment"
	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/launch"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
	"github.com/banshee-data/vehicle.detect/internal/timeutil"
	"github.com/banshee-data/vehicle.detect/internal/weights"
)

// Ledger records launches and downloads. A nil Ledger records nothing.
type Ledger interface {
	RecordLaunch(l db.Launch) error
	FinishLaunch(runID string, finishedAt time.Time, exitCode int, interrupted bool) error
	RecordAcquisition(a db.Acquisition) (int64, error)
}

// PipelineRunner executes a built pipeline command.
type PipelineRunner interface {
	Run(ctx context.Context, cmd launch.Command) launch.Result
}

// Options are the per-invocation choices from the command line.
type Options struct {
	Mode      launch.Mode
	VideoPath string
	CameraID  int
	Save      bool
	DryRun    bool
}

// Validate rejects option combinations that could never launch.
func (o Options) Validate() error {
	switch o.Mode {
	case launch.ModeVideo:
		if o.VideoPath == "" {
			return fmt.Errorf("video mode requires a video path")
		}
	case launch.ModeWebcam:
		if o.CameraID < 0 {
			return fmt.Errorf("camera id must be non-negative, got %d", o.CameraID)
		}
	default:
		return fmt.Errorf("unknown mode %d", int(o.Mode))
	}
	return nil
}

// Launcher holds the collaborators of a session.
type Launcher struct {
	FS            fsutil.FileSystem
	Catalog       weights.Catalog
	Sources       []acquire.Source
	PretrainedDir string
	ExpsDir       string
	FallbackExp   string
	Python        string
	DemoScript    string

	Prompter acquire.Prompter
	Fetcher  acquire.Fetcher
	Runner   PipelineRunner
	Ledger   Ledger
	Clock    timeutil.Clock
	NewRunID func() string
	Out      io.Writer
}

// New wires a Launcher to the real filesystem, network, terminal and
// process runner using the values in cfg. The ledger is left unset.
func New(cfg *config.LauncherConfig, in io.Reader, out io.Writer) *Launcher {
	return &Launcher{
		FS:            fsutil.OSFileSystem{},
		Catalog:       weights.DefaultCatalog(),
		Sources:       acquire.DefaultSources(),
		PretrainedDir: cfg.GetPretrainedDir(),
		ExpsDir:       cfg.GetExpsDir(),
		FallbackExp:   cfg.GetFallbackExp(),
		Python:        cfg.GetPython(),
		DemoScript:    cfg.GetDemoScript(),
		Prompter:      &acquire.TerminalPrompter{In: in, Out: out},
		Fetcher:       acquire.NewDownloader(httputil.NewStandardClient(&http.Client{Timeout: cfg.GetDownloadTimeout()}), acquire.NewTerminalProgress(out)),
		Runner:        launch.NewRunner(),
		Clock:         timeutil.RealClock{},
		NewRunID:      func() string { return uuid.New().String() },
		Out:           out,
	}
}

// Session is what happened during one Run.
type Session struct {
	RunID       string
	Acquisition acquire.Result
	Mapping     experiment.Mapping
	Command     launch.Command
	Launch      launch.Result
	Launched    bool
	Err         error
}

// Run drives a session to completion. All user-facing output goes to
// l.Out; the returned Session is mapped to a process exit code by ExitCode.
func (l *Launcher) Run(ctx context.Context, opts Options) Session {
	s := Session{RunID: l.NewRunID()}
	fmt.Fprintln(l.Out, welcomeBanner())

	if err := opts.Validate(); err != nil {
		s.Err = err
		fmt.Fprintf(l.Out, "\nError: %v\n", err)
		return s
	}

	inv := launch.Invocation{
		Python:    l.Python,
		Script:    l.DemoScript,
		Mode:      opts.Mode,
		VideoPath: opts.VideoPath,
		CameraID:  opts.CameraID,
		Save:      opts.Save,
	}

	pipeline := &acquire.Pipeline{
		FS:       l.FS,
		Dir:      l.PretrainedDir,
		Catalog:  l.Catalog,
		Sources:  l.Sources,
		Prompter: l.Prompter,
		Fetcher:  &recordingFetcher{next: l.Fetcher, ledger: l.Ledger, clock: l.Clock, runID: s.RunID},
		Out:      l.Out,
	}
	s.Acquisition = pipeline.Run(ctx)
	if !s.Acquisition.Resolved() {
		s.Err = s.Acquisition.Reason
		l.printAbandoned(s.Acquisition)
		return s
	}
	if s.Acquisition.DownloadAttempted() {
		fmt.Fprintln(l.Out, "\nDownload complete!")
	}

	w := s.Acquisition.Weights
	s.Mapping = experiment.Map(l.FS, l.ExpsDir, l.FallbackExp, w.Stem())
	inv.WeightsPath = w.Path
	inv.ExpPath = s.Mapping.Path

	if err := inv.Validate(); err != nil {
		s.Err = err
		fmt.Fprintf(l.Out, "\nError: %v\n", err)
		return s
	}
	s.Command = launch.Build(inv)

	fmt.Fprint(l.Out, startBanner(inv, w.Name()))

	record := db.Launch{
		RunID:       s.RunID,
		StartedAt:   l.Clock.Now(),
		Mode:        inv.Mode.String(),
		Source:      describeSource(inv),
		WeightsPath: inv.WeightsPath,
		ExpPath:     inv.ExpPath,
		ExpFallback: s.Mapping.Fallback,
		Argv:        s.Command.Argv(),
		DryRun:      opts.DryRun,
	}

	if opts.DryRun {
		fmt.Fprintf(l.Out, "Dry run, not starting the pipeline:\n  %s\n", s.Command)
		l.recordLaunch(record)
		return s
	}

	l.recordLaunch(record)
	s.Launched = true
	s.Launch = l.Runner.Run(ctx, s.Command)
	l.finishLaunch(s.RunID, s.Launch)

	switch {
	case s.Launch.Interrupted:
		fmt.Fprintln(l.Out, "\n\nExiting")
	case s.Launch.Err != nil:
		s.Err = s.Launch.Err
		fmt.Fprintf(l.Out, "\nError occurred: %v\n", s.Launch.Err)
	}
	return s
}

// ExitCode maps a session to the process exit status. Declining the
// download and an interrupted pipeline both exit 0. Every other failure,
// including an interrupt once a transfer has started, exits 1.
func ExitCode(s Session) int {
	switch {
	case s.Err == nil:
		return 0
	case errors.Is(s.Err, acquire.ErrUserCancelled) && !s.Acquisition.DownloadAttempted():
		return 0
	default:
		return 1
	}
}

func (l *Launcher) printAbandoned(res acquire.Result) {
	switch {
	case res.Cancelled() && res.DownloadAttempted():
		fmt.Fprintln(l.Out, "\n\nDownload cancelled")
		fmt.Fprint(l.Out, res.Outcome.Guidance())
	case res.Cancelled():
		fmt.Fprintf(l.Out, "\nDownload declined. Place weights in %s or run `vehicle-detect download`.\n", l.PretrainedDir)
	case res.Outcome != nil && res.Outcome.Status == acquire.StatusFailed:
		fmt.Fprintf(l.Out, "\nError during download: %v\n", res.Outcome.Err)
		fmt.Fprint(l.Out, res.Outcome.Guidance())
	default:
		fmt.Fprintf(l.Out, "\nDownload failed: %v\n", res.Reason)
	}
	fmt.Fprintln(l.Out, "\nExiting.")
}

func (l *Launcher) recordLaunch(rec db.Launch) {
	if l.Ledger == nil {
		return
	}
	if err := l.Ledger.RecordLaunch(rec); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}

func (l *Launcher) finishLaunch(runID string, res launch.Result) {
	if l.Ledger == nil {
		return
	}
	if err := l.Ledger.FinishLaunch(runID, l.Clock.Now(), res.ExitCode, res.Interrupted); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}

// recordingFetcher writes every download attempt to the ledger.
type recordingFetcher struct {
	next   acquire.Fetcher
	ledger Ledger
	clock  timeutil.Clock
	runID  string
}

func (f *recordingFetcher) Fetch(ctx context.Context, dir string, src acquire.Source) acquire.Outcome {
	out := f.next.Fetch(ctx, dir, src)
	if f.ledger == nil {
		return out
	}
	if _, err := f.ledger.RecordAcquisition(AcquisitionRecord(f.clock.Now(), f.runID, out)); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
	return out
}

// AcquisitionRecord converts a fetch outcome into a ledger row.
func AcquisitionRecord(at time.Time, runID string, out acquire.Outcome) db.Acquisition {
	rec := db.Acquisition{
		RunID:     runID,
		CreatedAt: at,
		Model:     out.Source.Model,
		URL:       out.Source.URL,
		DestPath:  out.Path,
		Status:    out.Status.String(),
		Bytes:     out.Bytes,
		Elapsed:   out.Elapsed,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	return rec
}
