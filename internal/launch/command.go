// Package launch builds the argument vector for the external tracking
// pipeline and runs it with the terminal attached.
package launch

import (
	"fmt"
	"strings"
)

// Mode selects the input source of the pipeline.
type Mode int

const (
	ModeVideo Mode = iota
	ModeWebcam
)

func (m Mode) String() string {
	if m == ModeWebcam {
		return "webcam"
	}
	return "video"
}

// Invocation is everything needed to start one pipeline run.
type Invocation struct {
	Python      string
	Script      string
	Mode        Mode
	VideoPath   string
	CameraID    int
	ExpPath     string
	WeightsPath string
	Save        bool
}

// Validate rejects invocations that cannot produce a usable command.
func (inv Invocation) Validate() error {
	if inv.Python == "" {
		return fmt.Errorf("python interpreter must be set")
	}
	if inv.Script == "" {
		return fmt.Errorf("demo script must be set")
	}
	switch inv.Mode {
	case ModeVideo:
		if inv.VideoPath == "" {
			return fmt.Errorf("video mode requires a video path")
		}
	case ModeWebcam:
		if inv.CameraID < 0 {
			return fmt.Errorf("camera id must be non-negative, got %d", inv.CameraID)
		}
	default:
		return fmt.Errorf("unknown mode %d", int(inv.Mode))
	}
	if inv.ExpPath == "" || inv.WeightsPath == "" {
		return fmt.Errorf("experiment and weights paths must be set")
	}
	return nil
}

// Command is a program and its arguments, never a shell string.
type Command struct {
	Name string
	Args []string
}

// Argv returns the full argument vector including the program.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command for display, quoting arguments with spaces.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, a := range c.Argv() {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Build assembles the pipeline command. The order is fixed: script, mode,
// source, experiment, weights, the optional save flag, then half precision
// and layer fusion which are always on.
func Build(inv Invocation) Command {
	args := []string{inv.Script, inv.Mode.String()}
	if inv.Mode == ModeWebcam {
		args = append(args, "--camid", fmt.Sprint(inv.CameraID))
	} else {
		args = append(args, "--path", inv.VideoPath)
	}
	args = append(args, "-f", inv.ExpPath, "-c", inv.WeightsPath)
	if inv.Save {
		args = append(args, "--save_result")
	}
	args = append(args, "--fp16", "--fuse")
	return Command{Name: inv.Python, Args: args}
}
