// Package lifecycle holds the document processing state machine.
//
// Statuses only change through Transition, which consults a fixed table of
// (status, event) -> status pairs. Anything not in the table is rejected.
package lifecycle

import (
	"fmt"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
)

// Event drives a status change.
type Event string

const (
	EventStart      Event = "START"       // text acquisition begins
	EventTextStored Event = "TEXT_STORED" // raw text captured and persisted, possibly empty
	EventExtracted  Event = "EXTRACTED"   // a backend produced the load-bearing field
	EventValidated  Event = "VALIDATED"   // zero hard validation errors
	EventSkipModel  Event = "SKIP_MODEL"  // type is stored for reference only
	EventFail       Event = "FAIL"
	EventResubmit   Event = "RESUBMIT"
)

type key struct {
	from  constants.ProcessingStatus
	event Event
}

var table = map[key]constants.ProcessingStatus{
	{constants.StatusPending, EventStart}:         constants.StatusProcessing,
	{constants.StatusProcessing, EventTextStored}: constants.StatusOCRComplete,
	{constants.StatusOCRComplete, EventExtracted}: constants.StatusExtracted,
	{constants.StatusOCRComplete, EventSkipModel}: constants.StatusValidated,
	{constants.StatusExtracted, EventValidated}:   constants.StatusValidated,
	{constants.StatusPending, EventFail}:          constants.StatusError,
	{constants.StatusProcessing, EventFail}:       constants.StatusError,
	{constants.StatusOCRComplete, EventFail}:      constants.StatusError,
	{constants.StatusExtracted, EventFail}:        constants.StatusError,
	{constants.StatusError, EventResubmit}:        constants.StatusPending,
	{constants.StatusValidated, EventResubmit}:    constants.StatusPending,
}

// Next returns the status reached from `from` on `ev`.
func Next(from constants.ProcessingStatus, ev Event) (constants.ProcessingStatus, error) {
	to, ok := table[key{from, ev}]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", common.ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// Allowed reports whether ev is legal from the given status.
func Allowed(from constants.ProcessingStatus, ev Event) bool {
	_, ok := table[key{from, ev}]
	return ok
}

// Machine tracks the status of a single document.
//
// The caller persists each new status; Machine only guarantees that the
// sequence it hands out is legal.
type Machine struct {
	status  constants.ProcessingStatus
	history []constants.ProcessingStatus
}

// New starts a machine at the given status.
func New(start constants.ProcessingStatus) *Machine {
	return &Machine{status: start, history: []constants.ProcessingStatus{start}}
}

// Status returns the current status.
func (m *Machine) Status() constants.ProcessingStatus { return m.status }

// History returns every status the machine has held, oldest first.
func (m *Machine) History() []constants.ProcessingStatus {
	out := make([]constants.ProcessingStatus, len(m.history))
	copy(out, m.history)
	return out
}

// Fire applies ev and returns the new status. The machine is unchanged on error.
func (m *Machine) Fire(ev Event) (constants.ProcessingStatus, error) {
	to, err := Next(m.status, ev)
	if err != nil {
		return m.status, err
	}
	m.status = to
	m.history = append(m.history, to)
	return to, nil
}
