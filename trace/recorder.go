// Package trace records coordinator activity and turns it into files and
// diagrams.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/framefsm"
)

// Trace is a serializable recording of one session.
type Trace struct {
	Session string            `json:"session" yaml:"session"`
	Started time.Time         `json:"started" yaml:"started"`
	Records []framefsm.Record `json:"records" yaml:"records"`
}

// Transition is an activation derived from a trace. From is empty for the
// initial activation.
type Transition struct {
	Machine string           `json:"machine" yaml:"machine"`
	From    framefsm.StateID `json:"from" yaml:"from"`
	To      framefsm.StateID `json:"to" yaml:"to"`
	Failed  bool             `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithoutTicks drops update and physics callbacks, delivered or not, to
// keep long recordings small.
func WithoutTicks() RecorderOption {
	return func(r *Recorder) {
		r.skipTicks = true
	}
}

// Recorder is a framefsm.Observer keeping every record in order. It is safe
// for concurrent use.
type Recorder struct {
	mu        sync.RWMutex
	session   string
	started   time.Time
	records   []framefsm.Record
	skipTicks bool
}

// NewRecorder creates a Recorder with a fresh session ID.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		session: uuid.NewString(),
		started: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe implements framefsm.Observer.
func (r *Recorder) Observe(rec framefsm.Record) {
	if r.skipTicks && isTick(rec.Callback) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Session returns the session ID.
func (r *Recorder) Session() string { return r.session }

// Records returns a copy of the records in order.
func (r *Recorder) Records() []framefsm.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]framefsm.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Count returns how many delivered callbacks of kind cb reached state.
func (r *Recorder) Count(state framefsm.StateID, cb framefsm.Callback) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records {
		if rec.Kind == framefsm.RecordCallback && rec.Callback == cb && rec.State == state {
			n++
		}
	}
	return n
}

// Failures returns the failure records.
func (r *Recorder) Failures() []framefsm.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []framefsm.Record
	for _, rec := range r.records {
		if rec.Kind == framefsm.RecordFailure {
			out = append(out, rec)
		}
	}
	return out
}

// Trace returns a snapshot suitable for saving.
func (r *Recorder) Trace() Trace {
	return Trace{
		Session: r.session,
		Started: r.started,
		Records: r.Records(),
	}
}

// Reset discards all records and keeps the session.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

// Transitions returns the activations recorded so far.
func (r *Recorder) Transitions() []Transition {
	return Transitions(r.Records())
}

// Transitions derives activations from records. An exit followed by an
// enter or a failure on the same machine forms one transition.
func Transitions(records []framefsm.Record) []Transition {
	var out []Transition
	lastExit := make(map[string]framefsm.StateID)
	for _, rec := range records {
		switch {
		case rec.Kind == framefsm.RecordCallback && rec.Callback == framefsm.CallbackExit:
			lastExit[rec.Machine] = rec.State
		case rec.Kind == framefsm.RecordCallback && rec.Callback == framefsm.CallbackEnter:
			out = append(out, Transition{Machine: rec.Machine, From: lastExit[rec.Machine], To: rec.State})
			delete(lastExit, rec.Machine)
		case rec.Kind == framefsm.RecordFailure:
			out = append(out, Transition{Machine: rec.Machine, From: lastExit[rec.Machine], To: rec.Target, Failed: true})
			delete(lastExit, rec.Machine)
		}
	}
	return out
}

func isTick(cb framefsm.Callback) bool {
	return cb == framefsm.CallbackUpdate || cb == framefsm.CallbackPhysicsUpdate
}
