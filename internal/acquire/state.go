package acquire

import (
	"fmt"

	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

// State is a step of the resolve-or-acquire flow.
type State int

const (
	StateResolving State = iota
	StateAwaitingChoice
	StateDownloading
	StateResolved
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateDownloading:
		return "downloading"
	case StateResolved:
		return "resolved"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether the flow has finished.
func IsTerminal(s State) bool {
	return s == StateResolved || s == StateAbandoned
}

// machine tracks the current state and the path taken to reach it.
type machine struct {
	cur        State
	downloaded bool
	trace      []State
}

func newMachine() *machine {
	return &machine{cur: StateResolving, trace: []State{StateResolving}}
}

// transition moves to next, rejecting edges the flow does not allow.
func (m *machine) transition(next State) error {
	if !isAllowedTransition(m.cur, next, m.downloaded) {
		return fmt.Errorf("disallowed transition: %s -> %s", m.cur, next)
	}
	if m.cur == StateDownloading && next == StateResolving {
		m.downloaded = true
	}
	m.cur = next
	m.trace = append(m.trace, next)
	return nil
}

// advance moves to next, logging a disallowed transition and leaving the
// state unchanged.
func (m *machine) advance(next State) {
	if err := m.transition(next); err != nil {
		monitoring.Logf("acquire: %v", err)
	}
}

// isAllowedTransition encodes the flow graph. A re-check after a completed
// download that still finds nothing abandons instead of prompting again.
func isAllowedTransition(from, to State, downloaded bool) bool {
	switch from {
	case StateResolving:
		if to == StateResolved {
			return true
		}
		if downloaded {
			return to == StateAbandoned
		}
		return to == StateAwaitingChoice
	case StateAwaitingChoice:
		return to == StateDownloading || to == StateAbandoned
	case StateDownloading:
		return to == StateResolving || to == StateAbandoned
	default:
		return false
	}
}
