package framefsm

import "time"

// Callback identifies a lifecycle callback kind.
type Callback string

const (
	// CallbackEnter is State.Enter, run on activation.
	CallbackEnter Callback = "enter"
	// CallbackExit is State.Exit, run on deactivation.
	CallbackExit Callback = "exit"
	// CallbackUpdate is the per-frame State.Update.
	CallbackUpdate Callback = "update"
	// CallbackPhysicsUpdate is the fixed-step State.PhysicsUpdate.
	CallbackPhysicsUpdate Callback = "physics_update"
	// CallbackInput is State.Input.
	CallbackInput Callback = "input"
	// CallbackUnhandledInput is State.UnhandledInput.
	CallbackUnhandledInput Callback = "unhandled_input"
	// CallbackUnhandledKeyInput is State.UnhandledKeyInput.
	CallbackUnhandledKeyInput Callback = "unhandled_key_input"
)

// RecordKind classifies an observed coordinator event.
type RecordKind string

const (
	// RecordCallback is a callback delivered to a State.
	RecordCallback RecordKind = "callback"
	// RecordDropped is a callback that arrived while no State was active.
	RecordDropped RecordKind = "dropped"
	// RecordFailure is a failed activation or transition.
	RecordFailure RecordKind = "failure"
)

// Record describes one thing the coordinator did. Records are emitted in
// call order, before the State callback runs.
type Record struct {
	Seq      uint64     `json:"seq" yaml:"seq"`
	At       time.Time  `json:"at" yaml:"at"`
	Machine  string     `json:"machine" yaml:"machine"`
	Kind     RecordKind `json:"kind" yaml:"kind"`
	Callback Callback   `json:"callback,omitempty" yaml:"callback,omitempty"`
	State    StateID    `json:"state,omitempty" yaml:"state,omitempty"`
	Target   StateID    `json:"target,omitempty" yaml:"target,omitempty"`
	Delta    float64    `json:"delta,omitempty" yaml:"delta,omitempty"`
	Err      string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Observer receives coordinator records. Observe is called on the
// coordinator's goroutine and must return promptly.
type Observer interface {
	Observe(r Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r Record)

func (f ObserverFunc) Observe(r Record) { f(r) }
