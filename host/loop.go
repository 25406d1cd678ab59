package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a loop that is already running.
var ErrAlreadyRunning = errors.New("loop already running")

// Receiver gets the per-frame callbacks of a host loop.
// *framefsm.Coordinator satisfies it.
type Receiver interface {
	Update(delta float64)
	PhysicsUpdate(delta float64)
	Input(event any)
	UnhandledInput(event any)
	UnhandledKeyInput(event any)
}

// Config configures a Loop.
type Config struct {
	FrameRate         time.Duration // Tick interval used by Start (default 60 FPS)
	PhysicsRate       time.Duration // Fixed physics step (default 60 Hz)
	MaxInputsPerFrame int           // Input batch capacity (default 1000)
	MaxPhysicsSteps   int           // Physics steps allowed per frame (default 8)
}

func (c Config) withDefaults() Config {
	if c.FrameRate <= 0 {
		c.FrameRate = 16667 * time.Microsecond
	}
	if c.PhysicsRate <= 0 {
		c.PhysicsRate = 16667 * time.Microsecond
	}
	if c.MaxInputsPerFrame <= 0 {
		c.MaxInputsPerFrame = 1000
	}
	if c.MaxPhysicsSteps <= 0 {
		c.MaxPhysicsSteps = 8
	}
	return c
}

// LoopOption configures optional Loop dependencies.
type LoopOption func(*Loop)

// WithLogger sets the logger used for recovered panics and dropped time.
func WithLogger(logger *zap.SugaredLogger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop is a single-threaded frame loop. Send and Defer are safe to call
// from any goroutine; receivers are only ever called from the stepping
// goroutine.
type Loop struct {
	cfg    Config
	logger *zap.SugaredLogger

	// stepMu serializes steps so callbacks never interleave.
	stepMu    sync.Mutex
	receivers []Receiver
	accum     time.Duration

	// mu guards the batches and counters below.
	mu          sync.Mutex
	inputs      []pendingInput
	deferred    []func()
	sequenceNum uint64
	frame       uint64

	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewLoop creates a loop with no receivers.
func NewLoop(cfg Config, opts ...LoopOption) *Loop {
	cfg = cfg.withDefaults()
	l := &Loop{
		cfg:    cfg,
		logger: zap.NewNop().Sugar(),
		inputs: make([]pendingInput, 0, cfg.MaxInputsPerFrame),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective configuration.
func (l *Loop) Config() Config { return l.cfg }

// Add registers a receiver. Receivers are called in registration order.
func (l *Loop) Add(r Receiver) {
	l.stepMu.Lock()
	defer l.stepMu.Unlock()
	l.receivers = append(l.receivers, r)
}

// Defer queues fn to run once at the start of the next step.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deferred = append(l.deferred, fn)
}

// Send queues an input event for the next step.
func (l *Loop) Send(kind InputKind, event any) error {
	return l.SendWithPriority(kind, event, 0)
}

// SendWithPriority queues an input event; higher priorities are delivered
// first within a step.
func (l *Loop) SendWithPriority(kind InputKind, event any, priority int) error {
	if kind < InputGeneral || kind > InputKey {
		return fmt.Errorf("send input: unknown kind %d", kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.inputs) >= l.cfg.MaxInputsPerFrame {
		return ErrInputQueueFull
	}
	l.inputs = append(l.inputs, pendingInput{
		Kind:        kind,
		Event:       event,
		SequenceNum: l.sequenceNum,
		Priority:    priority,
	})
	l.sequenceNum++
	return nil
}

// Frame returns the number of completed steps.
func (l *Loop) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Start runs Step on a ticker at the configured frame rate until ctx is
// cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped != nil {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	tickCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.stopped = make(chan struct{})
	stopped := l.stopped
	l.mu.Unlock()

	go l.run(tickCtx, stopped)
	return nil
}

// Stop halts a started loop and waits for the current step to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, stopped := l.cancel, l.stopped
	l.cancel, l.stopped = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (l *Loop) run(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.cfg.FrameRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			l.safeStep(delta)
		}
	}
}

// safeStep runs one step, recovering and logging a panic so one bad frame
// does not stop the loop.
func (l *Loop) safeStep(delta time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorf("Recovered panic in frame %d: %v", l.Frame(), r)
		}
	}()
	l.Step(delta)
}
