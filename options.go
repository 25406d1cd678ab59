package framefsm

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Coordinator via the functional options pattern.
type Option[E any] func(*Coordinator[E])

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger[E any](logger *zap.SugaredLogger) Option[E] {
	return func(c *Coordinator[E]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithName sets the machine name used in logs, metrics and records.
// Defaults to the coordinator ID.
func WithName[E any](name string) Option[E] {
	return func(c *Coordinator[E]) {
		c.name = name
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics[E any](m *Metrics) Option[E] {
	return func(c *Coordinator[E]) {
		c.metrics = m
	}
}

// WithObserver adds an Observer. Observers are called in the order added.
func WithObserver[E any](o Observer) Option[E] {
	return func(c *Coordinator[E]) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock[E any](now func() time.Time) Option[E] {
	return func(c *Coordinator[E]) {
		if now != nil {
			c.now = now
		}
	}
}
