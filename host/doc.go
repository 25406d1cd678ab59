// Package host provides a headless frame loop for driving framefsm
// coordinators.
//
// The loop plays the part of a game engine's main loop:
//   - Deferred calls run once at the start of the next step, before any
//     frame callback
//   - Input is batched and delivered at step boundaries in a deterministic
//     order (priority, then submission order)
//   - Physics runs on a fixed time step from an accumulator
//   - The frame update runs once per step with the measured delta
//
// Every receiver callback runs on the goroutine calling Step (or the loop
// goroutine after Start), so receivers need no locking of their own.
//
// # Example Usage
//
//	loop := host.NewLoop(host.Config{FrameRate: 16667 * time.Microsecond})
//	loop.Add(coordinator)
//	coordinator.ActivateInitial(loop)
//	loop.Start(ctx)
//	defer loop.Stop()
//	loop.Send(host.InputKey, "jump")
//
// For tests and replays, call Step directly instead of Start.
package host
