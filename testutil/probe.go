// Package testutil provides instrumented states for exercising coordinators
// and hosts in tests.
package testutil

import (
	"sync"

	"github.com/comalice/framefsm"
)

// Call is one callback a Probe received.
type Call struct {
	State    framefsm.StateID
	Callback framefsm.Callback
	Delta    float64
	Event    any
}

// Journal is an ordered log of calls shared by several probes, so tests can
// check ordering across states.
type Journal struct {
	mu    sync.Mutex
	calls []Call
}

func (j *Journal) add(c Call) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, c)
}

// Calls returns a copy of every recorded call in order.
func (j *Journal) Calls() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Call, len(j.calls))
	copy(out, j.calls)
	return out
}

// Count returns how many times state received cb.
func (j *Journal) Count(state framefsm.StateID, cb framefsm.Callback) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, c := range j.calls {
		if c.State == state && c.Callback == cb {
			n++
		}
	}
	return n
}

// Index returns the position of the nth (0-based) call of cb on state, or
// -1 when there is none.
func (j *Journal) Index(state framefsm.StateID, cb framefsm.Callback, nth int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, c := range j.calls {
		if c.State == state && c.Callback == cb {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	return -1
}

// Reset clears the journal.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = nil
}

// Probe is a State that records every callback in a Journal. The optional
// hooks run after recording, which lets tests request transitions from
// inside callbacks.
type Probe[E any] struct {
	ID      framefsm.StateID
	Journal *Journal

	OnEnter  func(b framefsm.Binding[E])
	OnExit   func(b framefsm.Binding[E])
	OnUpdate func(b framefsm.Binding[E], delta float64)
	OnInput  func(b framefsm.Binding[E], event any)

	mu       sync.Mutex
	active   bool
	bindings []framefsm.Binding[E]
}

// NewProbe creates a probe writing to j.
func NewProbe[E any](id framefsm.StateID, j *Journal) *Probe[E] {
	return &Probe[E]{ID: id, Journal: j}
}

// Active reports whether the probe is between Enter and Exit.
func (p *Probe[E]) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Bindings returns every binding the probe was entered with.
func (p *Probe[E]) Bindings() []framefsm.Binding[E] {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]framefsm.Binding[E], len(p.bindings))
	copy(out, p.bindings)
	return out
}

func (p *Probe[E]) record(cb framefsm.Callback, delta float64, event any) {
	if p.Journal != nil {
		p.Journal.add(Call{State: p.ID, Callback: cb, Delta: delta, Event: event})
	}
}

func (p *Probe[E]) Enter(b framefsm.Binding[E]) {
	p.mu.Lock()
	p.active = true
	p.bindings = append(p.bindings, b)
	p.mu.Unlock()
	p.record(framefsm.CallbackEnter, 0, nil)
	if p.OnEnter != nil {
		p.OnEnter(b)
	}
}

func (p *Probe[E]) Exit(b framefsm.Binding[E]) {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
	p.record(framefsm.CallbackExit, 0, nil)
	if p.OnExit != nil {
		p.OnExit(b)
	}
}

func (p *Probe[E]) Update(b framefsm.Binding[E], delta float64) {
	p.record(framefsm.CallbackUpdate, delta, nil)
	if p.OnUpdate != nil {
		p.OnUpdate(b, delta)
	}
}

func (p *Probe[E]) PhysicsUpdate(_ framefsm.Binding[E], delta float64) {
	p.record(framefsm.CallbackPhysicsUpdate, delta, nil)
}

func (p *Probe[E]) Input(b framefsm.Binding[E], event any) {
	p.record(framefsm.CallbackInput, 0, event)
	if p.OnInput != nil {
		p.OnInput(b, event)
	}
}

func (p *Probe[E]) UnhandledInput(_ framefsm.Binding[E], event any) {
	p.record(framefsm.CallbackUnhandledInput, 0, event)
}

func (p *Probe[E]) UnhandledKeyInput(_ framefsm.Binding[E], event any) {
	p.record(framefsm.CallbackUnhandledKeyInput, 0, event)
}
