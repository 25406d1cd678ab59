package framefsm

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deferrer runs a function once, after the current synchronous setup pass
// and before the next frame callback. host.Loop implements it.
type Deferrer interface {
	Defer(fn func())
}

// Coordinator owns the states of one controlled entity and forwards every
// host callback to the single active state.
//
// A Coordinator is not safe for concurrent use. States may call
// TransitionTo from inside their own callbacks on the same goroutine.
type Coordinator[E any] struct {
	id   string
	name string

	entity    E
	hasEntity bool
	initial   StateID

	states map[StateID]State[E]
	order  []StateID

	// active is nil before the first activation, while a transition is
	// between exit and enter, and after a failed transition.
	active   State[E]
	activeID StateID
	binding  Binding[E]

	logger    *zap.SugaredLogger
	metrics   *Metrics
	observers []Observer
	now       func() time.Time
	seq       uint64
	phase     *lifecycle
}

// New creates a Coordinator with no states, no entity and no initial state.
func New[E any](opts ...Option[E]) *Coordinator[E] {
	c := &Coordinator[E]{
		id:     uuid.NewString(),
		states: make(map[StateID]State[E]),
		logger: zap.NewNop().Sugar(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = c.id
	}
	c.phase = newLifecycle(c.name, c.logger)
	return c
}

// Register adds s to the known-state set under id. States are registered
// during setup, before any activation.
func (c *Coordinator[E]) Register(id StateID, s State[E]) error {
	if id == "" {
		return ErrEmptyStateID
	}
	if isNil(s) {
		return fmt.Errorf("register %q: %w", id, ErrNilState)
	}
	if _, exists := c.states[id]; exists {
		return fmt.Errorf("register %q: %w", id, ErrDuplicateState)
	}
	c.states[id] = s
	c.order = append(c.order, id)
	return nil
}

// SetEntity assigns the controlled entity. A nil pointer, map, slice,
// channel, func or interface counts as unassigned.
func (c *Coordinator[E]) SetEntity(e E) {
	c.entity = e
	c.hasEntity = !isNil(e)
}

// SetInitial designates the state activated by Start and ActivateInitial.
func (c *Coordinator[E]) SetInitial(id StateID) {
	c.initial = id
}

// ActivateInitial checks the configuration and schedules activation of the
// initial state through d. With a nil d the activation runs immediately.
//
// A missing entity is logged once and leaves the machine inert. A missing
// initial state schedules nothing.
func (c *Coordinator[E]) ActivateInitial(d Deferrer) error {
	if err := c.checkEntity(); err != nil {
		return err
	}
	if c.initial == "" {
		c.logger.Debugf("Machine %s has no initial state, nothing to activate", c.name)
		return nil
	}
	c.phase.fire(eventSchedule)
	if d == nil {
		_ = c.activateInitial()
		return nil
	}
	d.Defer(func() { _ = c.activateInitial() })
	return nil
}

// Start activates the initial state now. It is the immediate form of
// ActivateInitial for callers that sequence setup themselves.
func (c *Coordinator[E]) Start() error {
	if err := c.checkEntity(); err != nil {
		return err
	}
	if c.initial == "" {
		c.logger.Debugf("Machine %s has no initial state, nothing to activate", c.name)
		return nil
	}
	return c.activateInitial()
}

func (c *Coordinator[E]) activateInitial() error {
	if c.active != nil {
		// Something already transitioned before the deferred call ran.
		c.logger.Debugf("Machine %s already in state %s, skipping initial activation", c.name, c.activeID)
		return nil
	}
	return c.activate("", c.initial)
}

// TransitionTo exits the active state, if any, and activates the state
// registered under id. Transitioning to the active state's own id runs a
// full exit and enter on the same instance.
//
// An unknown id is logged, leaves the machine with no active state and
// returns an error wrapping ErrUnknownState. Callbacks are dropped until a
// later transition succeeds.
func (c *Coordinator[E]) TransitionTo(id StateID) error {
	from := c.activeID
	if c.active != nil {
		old, b := c.active, c.binding
		c.active, c.activeID, c.binding = nil, "", Binding[E]{}
		c.emit(Record{Kind: RecordCallback, Callback: CallbackExit, State: from, Target: id})
		old.Exit(b)
		if c.active != nil {
			// Exit requested its own transition; leave that state too.
			return c.TransitionTo(id)
		}
	}
	return c.activate(from, id)
}

// activate resolves id and starts it.
func (c *Coordinator[E]) activate(from, id StateID) error {
	s, ok := c.states[id]
	if !ok {
		err := fmt.Errorf("transition to %q: %w", id, ErrUnknownState)
		c.fail(reasonUnknownState, id, err)
		return err
	}
	c.active, c.activeID = s, id
	return c.startActiveState(from)
}

// startActiveState binds the active state and calls its Enter.
func (c *Coordinator[E]) startActiveState(from StateID) error {
	if c.active == nil {
		err := fmt.Errorf("start state: %w", ErrNoActiveState)
		c.fail(reasonNoActive, "", err)
		return err
	}
	if !c.hasEntity {
		target := c.activeID
		c.active, c.activeID = nil, ""
		err := fmt.Errorf("start state %q: %w", target, ErrNoEntity)
		c.fail(reasonNoEntity, target, err)
		return err
	}

	c.logger.Infof("Machine %s state start %s", c.name, c.activeID)
	c.binding = Binding[E]{Machine: c, Entity: c.entity, State: c.activeID}
	c.phase.fire(eventActivate)
	c.metrics.transition(c.name, from, c.activeID)
	c.emit(Record{Kind: RecordCallback, Callback: CallbackEnter, State: c.activeID})
	c.active.Enter(c.binding)
	return nil
}

func (c *Coordinator[E]) checkEntity() error {
	if c.hasEntity {
		return nil
	}
	c.fail(reasonNoEntity, c.initial, fmt.Errorf("activate: %w", ErrNoEntity))
	return ErrNoEntity
}

// fail reports err on the diagnostic channel and leaves the machine inert.
func (c *Coordinator[E]) fail(reason string, target StateID, err error) {
	c.logger.Errorf("Machine %s: %v", c.name, err)
	c.metrics.failure(c.name, reason)
	if reason == reasonNoEntity {
		c.phase.fire(eventMisconfigure)
	}
	c.phase.fire(eventClear)
	c.emit(Record{Kind: RecordFailure, Target: target, Err: err.Error()})
}

func (c *Coordinator[E]) emit(r Record) {
	if len(c.observers) == 0 {
		return
	}
	c.seq++
	r.Seq = c.seq
	r.At = c.now()
	r.Machine = c.name
	for _, o := range c.observers {
		o.Observe(r)
	}
}

// ID returns the coordinator's unique ID.
func (c *Coordinator[E]) ID() string { return c.id }

// Name returns the machine name used in logs and metrics.
func (c *Coordinator[E]) Name() string { return c.name }

// Active returns the active state's id, or false when the machine is inert.
func (c *Coordinator[E]) Active() (StateID, bool) {
	if c.active == nil {
		return "", false
	}
	return c.activeID, true
}

// IsActive reports whether id is the active state.
func (c *Coordinator[E]) IsActive(id StateID) bool {
	return c.active != nil && c.activeID == id
}

// States returns the registered state ids in registration order.
func (c *Coordinator[E]) States() []StateID {
	out := make([]StateID, len(c.order))
	copy(out, c.order)
	return out
}

// Entity returns the controlled entity and whether it is assigned.
func (c *Coordinator[E]) Entity() (E, bool) {
	return c.entity, c.hasEntity
}

// Initial returns the designated initial state.
func (c *Coordinator[E]) Initial() StateID { return c.initial }

// Phase returns the lifecycle phase.
func (c *Coordinator[E]) Phase() Phase { return c.phase.current() }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
