package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
	"github.com/banshee-data/vehicle.detect/internal/weights"
)

// Fetcher downloads one source into a directory.
type Fetcher interface {
	Fetch(ctx context.Context, dir string, src Source) Outcome
}

// Pipeline resolves weights, acquiring them interactively when missing.
type Pipeline struct {
	FS       fsutil.FileSystem
	Dir      string
	Catalog  weights.Catalog
	Sources  []Source
	Prompter Prompter
	Fetcher  Fetcher
	Out      io.Writer
}

// Result is where the flow stopped and why.
type Result struct {
	State   State
	Weights weights.Resolved
	Choice  Choice
	Outcome *Outcome
	Reason  error
	Trace   []State
}

// Resolved reports whether usable weights were found.
func (r Result) Resolved() bool { return r.State == StateResolved }

// Cancelled reports whether the user opted out, either at the prompt or by
// interrupting the transfer.
func (r Result) Cancelled() bool { return errors.Is(r.Reason, ErrUserCancelled) }

// DownloadAttempted reports whether a transfer was started.
func (r Result) DownloadAttempted() bool { return r.Outcome != nil }

// Run drives the flow to a terminal state. Faults are reported through the
// Result; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context) Result {
	m := newMachine()
	res := Result{}

	finish := func(next State, reason error) Result {
		m.advance(next)
		res.State = m.cur
		res.Reason = reason
		res.Trace = m.trace
		return res
	}

	if w, ok := weights.Resolve(p.FS, p.Dir, p.Catalog); ok {
		res.Weights = w
		return finish(StateResolved, nil)
	}

	p.printMissing()
	m.advance(StateAwaitingChoice)

	choice, err := p.Prompter.Choose(ctx, DownloadPrompt(p.Sources))
	res.Choice = choice
	if err != nil {
		if ctx.Err() == nil {
			monitoring.Logf("acquire: prompt failed: %v", err)
		}
		res.Choice = ChoiceCancel
		return finish(StateAbandoned, fmt.Errorf("%w: %w", ErrUserCancelled, err))
	}

	model, ok := choice.Model()
	if !ok {
		return finish(StateAbandoned, ErrUserCancelled)
	}
	src, err := LookupSource(p.Sources, model)
	if err != nil {
		return finish(StateAbandoned, fmt.Errorf("%w: %w", ErrAcquisitionFailed, err))
	}

	m.advance(StateDownloading)
	outcome := p.Fetcher.Fetch(ctx, p.Dir, src)
	res.Outcome = &outcome

	switch outcome.Status {
	case StatusCancelled, StatusFailed:
		return finish(StateAbandoned, outcome.Err)
	}

	m.advance(StateResolving)
	if w, ok := weights.Resolve(p.FS, p.Dir, p.Catalog); ok {
		res.Weights = w
		return finish(StateResolved, nil)
	}
	return finish(StateAbandoned, fmt.Errorf("%w: %s was fetched but does not match the catalog", weights.ErrNotFound, outcome.Path))
}

func (p *Pipeline) printMissing() {
	if p.Out == nil {
		return
	}
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, "No pretrained weights found!")
	fmt.Fprintf(p.Out, "Expected one of these in %s/:\n", p.Dir)
	for _, name := range p.Catalog.Filenames() {
		fmt.Fprintf(p.Out, "  - %s\n", name)
	}
	fmt.Fprintln(p.Out)
}
