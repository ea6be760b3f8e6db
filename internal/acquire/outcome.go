package acquire

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAcquisitionFailed marks a transfer that did not complete.
	ErrAcquisitionFailed = errors.New("weights acquisition failed")
	// ErrUserCancelled marks an explicit opt-out or an interrupt.
	ErrUserCancelled = errors.New("cancelled by user")
)

// Status is how a fetch ended.
type Status int

const (
	StatusFailed Status = iota
	StatusDownloaded
	StatusAlreadyPresent
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusAlreadyPresent:
		return "already_present"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Outcome is the result of one fetch. Transfer faults are reported here and
// never as a returned error, so every caller handles all statuses.
type Outcome struct {
	Status  Status
	Source  Source
	Path    string
	Bytes   int64
	Elapsed time.Duration
	Err     error
}

// OK reports whether the weights are on disk after the fetch.
func (o Outcome) OK() bool {
	return o.Status == StatusDownloaded || o.Status == StatusAlreadyPresent
}

func failed(src Source, path string, written int64, err error) Outcome {
	return Outcome{
		Status: StatusFailed,
		Source: src,
		Path:   path,
		Bytes:  written,
		Err:    fmt.Errorf("%w: %w", ErrAcquisitionFailed, err),
	}
}

func cancelled(src Source, path string, written int64, cause error) Outcome {
	return Outcome{
		Status: StatusCancelled,
		Source: src,
		Path:   path,
		Bytes:  written,
		Err:    fmt.Errorf("%w: %w", ErrUserCancelled, cause),
	}
}

// Guidance returns the manual recovery instructions for a failed fetch.
func (o Outcome) Guidance() string {
	var b strings.Builder
	b.WriteString("Please download manually from:\n")
	fmt.Fprintf(&b, "  %s\n", o.Source.URL)
	fmt.Fprintf(&b, "And save it to: %s\n", o.Path)
	return b.String()
}
