package framefsm

import (
	"errors"
	"fmt"
)

// Builder provides a fluent API for assembling a Coordinator during setup.
// Errors are collected and reported by Build.
type Builder[E any] struct {
	initial   StateID
	entity    E
	hasEntity bool
	ids       []StateID
	states    map[StateID]State[E]
	opts      []Option[E]
	errs      []error
}

// NewBuilder creates a builder whose machine starts in initial.
func NewBuilder[E any](initial StateID) *Builder[E] {
	return &Builder[E]{
		initial: initial,
		states:  make(map[StateID]State[E]),
	}
}

// State registers s under id. Registration order is preserved.
func (b *Builder[E]) State(id StateID, s State[E]) *Builder[E] {
	if _, exists := b.states[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("state %q: %w", id, ErrDuplicateState))
		return b
	}
	b.ids = append(b.ids, id)
	b.states[id] = s
	return b
}

// Entity assigns the controlled entity.
func (b *Builder[E]) Entity(e E) *Builder[E] {
	b.entity = e
	b.hasEntity = true
	return b
}

// With appends coordinator options.
func (b *Builder[E]) With(opts ...Option[E]) *Builder[E] {
	b.opts = append(b.opts, opts...)
	return b
}

// Build validates the configuration and constructs the Coordinator. The
// machine is not started.
func (b *Builder[E]) Build() (*Coordinator[E], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	c := New(b.opts...)
	for _, id := range b.ids {
		if err := c.Register(id, b.states[id]); err != nil {
			return nil, err
		}
	}
	if b.hasEntity {
		c.SetEntity(b.entity)
	}
	c.SetInitial(b.initial)
	return c, nil
}

// validate checks that every referenced state exists.
func (b *Builder[E]) validate() error {
	errs := append([]error(nil), b.errs...)
	if len(b.ids) == 0 {
		errs = append(errs, errors.New("no states provided"))
	}
	if b.initial != "" {
		if _, exists := b.states[b.initial]; !exists {
			errs = append(errs, fmt.Errorf("initial state %q: %w", b.initial, ErrUnknownState))
		}
	}
	return errors.Join(errs...)
}
