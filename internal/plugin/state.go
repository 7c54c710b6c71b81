package plugin

import (
	"strings"

	"github.com/marco/multiclass/internal/classify"
)

// State is a step of the per-event state machine.
type State string

const (
	StateReceived   State = "received"
	StateValidated  State = "validated"
	StateClassified State = "classified"
	StateRewritten  State = "rewritten"
	StateNotified   State = "notified"
	StateSkipped    State = "skipped"
	StateDone       State = "done"
)

// Skip reasons.
const (
	ReasonDisabled          = "disabled"
	ReasonMalformedEvent    = "malformed_event"
	ReasonMissingPath       = "missing_path"
	ReasonNotApplicable     = "not_applicable"
	ReasonNoSegments        = "no_segments"
	ReasonUnexpectedFailure = "unexpected_failure"
)

// Outcome records how one event travelled through the state machine.
type Outcome struct {
	Trace    []State
	Reason   string
	Segments []classify.Segment
	Original string
	Path     string
}

// Rewritten reports whether the event path was replaced.
func (o Outcome) Rewritten() bool {
	return o.reached(StateRewritten)
}

// Notified reports whether a completion message was delivered.
func (o Outcome) Notified() bool {
	return o.reached(StateNotified)
}

// Skipped reports whether the event was passed through untouched.
func (o Outcome) Skipped() bool {
	return o.reached(StateSkipped)
}

// String renders the trace, e.g. "received>validated>classified>rewritten>done".
func (o Outcome) String() string {
	parts := make([]string, len(o.Trace))
	for i, s := range o.Trace {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}

func (o Outcome) reached(state State) bool {
	for _, s := range o.Trace {
		if s == state {
			return true
		}
	}
	return false
}

func (o *Outcome) enter(state State) {
	o.Trace = append(o.Trace, state)
}

func (o *Outcome) skip(reason string) {
	o.Reason = reason
	o.enter(StateSkipped)
}
