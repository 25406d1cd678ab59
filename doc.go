// Package framefsm is a flat, single-active-state machine for driving the
// per-frame behavior of one entity from a real-time host loop.
//
// A Coordinator owns a set of named States and exactly zero or one active
// State. The host forwards its frame tick, physics step and input callbacks
// to the Coordinator, which hands them to the active State together with a
// Binding (the entity plus a handle for requesting transitions).
//
// # Example Usage
//
//	c, err := framefsm.NewBuilder[*Player]("idle").
//		Entity(player).
//		State("idle", &Idle{}).
//		State("moving", &Moving{}).
//		Build()
//	loop := host.NewLoop(host.Config{})
//	loop.Add(c)
//	c.ActivateInitial(loop) // runs before the first frame
//	loop.Step(16 * time.Millisecond)
//
// # Transitions
//
// TransitionTo always runs the old state's Exit to completion before the
// new state's Enter starts. There is no transition table: any state may
// request any target. An unknown target leaves the machine inert, with
// every callback silently dropped until a later transition succeeds.
//
// # Failures
//
// Configuration and resolution failures are logged through the zap logger
// given with WithLogger, counted in Metrics, reported to Observers, and
// returned as errors. None of them panic.
package framefsm
