package acquire

import (
	"fmt"
	"io"
)

// Progress receives transfer updates. total is -1 when the server did not
// declare a length.
type Progress interface {
	Start(src Source, total int64)
	Update(written int64)
	Finish(written int64, err error)
}

// NopProgress discards updates.
type NopProgress struct{}

func (NopProgress) Start(Source, int64) {}

func (NopProgress) Update(int64) {}

func (NopProgress) Finish(int64, error) {}

const unknownStep = 1 << 20

// TerminalProgress rewrites a single status line on Out.
type TerminalProgress struct {
	Out io.Writer

	total   int64
	lastPct int
	lastLen int64
}

// NewTerminalProgress returns a progress line writer.
func NewTerminalProgress(out io.Writer) *TerminalProgress {
	return &TerminalProgress{Out: out}
}

// Start prints the download header.
func (p *TerminalProgress) Start(src Source, total int64) {
	p.total = total
	p.lastPct = -1
	p.lastLen = 0
	fmt.Fprintf(p.Out, "Downloading %s (%s)\n", src.Model, src.SizeLabel)
	fmt.Fprintf(p.Out, "From: %s\n", src.URL)
}

// Update redraws the line when the percentage changes, or every MiB when
// the size is unknown.
func (p *TerminalProgress) Update(written int64) {
	if p.total > 0 {
		pct := int(written * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct == p.lastPct {
			return
		}
		p.lastPct = pct
		fmt.Fprintf(p.Out, "\rProgress: %3d%% (%s / %s)", pct, formatBytes(written), formatBytes(p.total))
		return
	}
	if written-p.lastLen < unknownStep && p.lastLen != 0 {
		return
	}
	p.lastLen = written
	fmt.Fprintf(p.Out, "\rProgress: %s (size unknown)", formatBytes(written))
}

// Finish terminates the progress line.
func (p *TerminalProgress) Finish(written int64, err error) {
	fmt.Fprintln(p.Out)
	if err != nil {
		fmt.Fprintf(p.Out, "Download stopped after %s\n", formatBytes(written))
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
