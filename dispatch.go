package framefsm

import (
	"fmt"
	"time"
)

// Update forwards a frame tick to the active state.
func (c *Coordinator[E]) Update(delta float64) {
	if !c.deliver(CallbackUpdate, delta) {
		return
	}
	c.active.Update(c.binding, delta)
}

// PhysicsUpdate forwards a physics step to the active state.
func (c *Coordinator[E]) PhysicsUpdate(delta float64) {
	if !c.deliver(CallbackPhysicsUpdate, delta) {
		return
	}
	c.active.PhysicsUpdate(c.binding, delta)
}

// Input forwards an input event, unmodified, to the active state.
func (c *Coordinator[E]) Input(event any) {
	if !c.deliver(CallbackInput, 0) {
		return
	}
	c.active.Input(c.binding, event)
}

// UnhandledInput forwards an input event nothing else consumed.
func (c *Coordinator[E]) UnhandledInput(event any) {
	if !c.deliver(CallbackUnhandledInput, 0) {
		return
	}
	c.active.UnhandledInput(c.binding, event)
}

// UnhandledKeyInput forwards a key event nothing else consumed.
func (c *Coordinator[E]) UnhandledKeyInput(event any) {
	if !c.deliver(CallbackUnhandledKeyInput, 0) {
		return
	}
	c.active.UnhandledKeyInput(c.binding, event)
}

// Dispatch forwards callback kind with its payload to the active state.
// Tick kinds take the elapsed time as a float64 in seconds, a float32, an
// int or a time.Duration. With no active state the call is a silent no-op.
func (c *Coordinator[E]) Dispatch(kind Callback, payload any) error {
	switch kind {
	case CallbackUpdate, CallbackPhysicsUpdate:
		delta, err := seconds(payload)
		if err != nil {
			return fmt.Errorf("dispatch %s: %w", kind, err)
		}
		if kind == CallbackUpdate {
			c.Update(delta)
		} else {
			c.PhysicsUpdate(delta)
		}
	case CallbackInput:
		c.Input(payload)
	case CallbackUnhandledInput:
		c.UnhandledInput(payload)
	case CallbackUnhandledKeyInput:
		c.UnhandledKeyInput(payload)
	default:
		// Enter and exit only happen through transitions.
		return fmt.Errorf("dispatch %q: %w", kind, ErrUnknownCallback)
	}
	return nil
}

// deliver records the callback and reports whether a state will receive it.
func (c *Coordinator[E]) deliver(kind Callback, delta float64) bool {
	if c.active == nil {
		c.metrics.drop(c.name, kind)
		c.emit(Record{Kind: RecordDropped, Callback: kind, Delta: delta})
		return false
	}
	c.metrics.callback(c.name, kind)
	c.emit(Record{Kind: RecordCallback, Callback: kind, State: c.activeID, Delta: delta})
	return true
}

func seconds(payload any) (float64, error) {
	switch v := payload.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case time.Duration:
		return v.Seconds(), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrBadPayload, payload)
	}
}
