package framefsm

// StateID names a State within one Coordinator.
type StateID string

// Transitioner is the handle a State uses to ask its coordinator for a
// transition. States never switch each other directly.
type Transitioner interface {
	TransitionTo(id StateID) error
	Active() (StateID, bool)
}

// Binding is the context a Coordinator hands to the active State on every
// callback. It is built when the State is activated and is only valid
// between Enter and the matching Exit.
type Binding[E any] struct {
	Machine Transitioner
	Entity  E
	State   StateID
}

// State is one unit of per-frame behavior for an entity of type E.
//
// All callbacks are synchronous and run on the host's thread. Embed Base to
// get no-op defaults and override only the callbacks a state needs.
type State[E any] interface {
	// Enter runs once per activation, after the previous state's Exit.
	Enter(b Binding[E])
	// Exit runs once per deactivation, before the next state's Enter.
	Exit(b Binding[E])
	// Update runs once per host frame. delta is in seconds.
	Update(b Binding[E], delta float64)
	// PhysicsUpdate runs once per physics step. delta is in seconds.
	PhysicsUpdate(b Binding[E], delta float64)
	Input(b Binding[E], event any)
	UnhandledInput(b Binding[E], event any)
	UnhandledKeyInput(b Binding[E], event any)
}

// Base implements every State callback as a no-op.
type Base[E any] struct{}

func (Base[E]) Enter(Binding[E])                  {}
func (Base[E]) Exit(Binding[E])                   {}
func (Base[E]) Update(Binding[E], float64)        {}
func (Base[E]) PhysicsUpdate(Binding[E], float64) {}
func (Base[E]) Input(Binding[E], any)             {}
func (Base[E]) UnhandledInput(Binding[E], any)    {}
func (Base[E]) UnhandledKeyInput(Binding[E], any) {}
