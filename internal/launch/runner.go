package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

// ErrExternalPipelineFailed marks a pipeline that could not start or exited
// non-zero.
var ErrExternalPipelineFailed = errors.New("external pipeline failed")

// Result describes how the pipeline process ended.
type Result struct {
	ExitCode    int
	Interrupted bool
	Err         error
}

// Runner executes pipeline commands with the terminal attached.
type Runner struct {
	Builder CommandBuilder
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewRunner returns a Runner that spawns real processes on the process's
// own standard streams.
func NewRunner() *Runner {
	return &Runner{
		Builder: NewRealCommandBuilder(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes cmd. When ctx is cancelled while the process is running the
// result is marked Interrupted and carries no error, whatever the child's
// exit status.
func (r *Runner) Run(ctx context.Context, cmd Command) Result {
	exec := r.Builder.BuildCommand(cmd.Name, cmd.Args...)
	exec.SetIO(r.Stdin, r.Stdout, r.Stderr)

	monitoring.Debugf("launch: %s", cmd)
	err := exec.Run(ctx)
	code := ExitCode(err)

	if ctx.Err() != nil {
		monitoring.Debugf("launch: interrupted (exit %d, err %v)", code, err)
		return Result{ExitCode: code, Interrupted: true}
	}
	if err != nil {
		if code < 0 {
			return Result{ExitCode: code, Err: fmt.Errorf("%w: failed to start %s: %w", ErrExternalPipelineFailed, cmd.Name, err)}
		}
		return Result{ExitCode: code, Err: fmt.Errorf("%w: %s exited with status %d", ErrExternalPipelineFailed, cmd.Name, code)}
	}
	return Result{ExitCode: 0}
}

// ExitCode extracts a process exit status from a Run error: 0 for nil, the
// child's status when it ran, and -1 when it never started.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		if c := coder.ExitCode(); c >= 0 {
			return c
		}
		// Killed by a signal.
		return 1
	}
	return -1
}
