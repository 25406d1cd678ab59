package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

// recorder is a Receiver logging every call as a string.
type recorder struct {
	mu      sync.Mutex
	calls   []string
	onInput func(event any)
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Update(delta float64)        { r.add("update %.3f", delta) }
func (r *recorder) PhysicsUpdate(delta float64) { r.add("physics %.3f", delta) }
func (r *recorder) Input(event any) {
	r.add("input %v", event)
	if r.onInput != nil {
		r.onInput(event)
	}
}
func (r *recorder) UnhandledInput(event any)    { r.add("unhandled %v", event) }
func (r *recorder) UnhandledKeyInput(event any) { r.add("key %v", event) }

func filter(calls []string, prefix string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// TestLoopDefaults tests that zero config values are filled in
func TestLoopDefaults(t *testing.T) {
	l := NewLoop(Config{})
	cfg := l.Config()

	assert.Equal(t, 16667*time.Microsecond, cfg.FrameRate)
	assert.Equal(t, 16667*time.Microsecond, cfg.PhysicsRate)
	assert.Equal(t, 1000, cfg.MaxInputsPerFrame)
	assert.Equal(t, 8, cfg.MaxPhysicsSteps)
}

// TestDeferredRunsBeforeFrameCallbacks tests that deferred work from setup
// runs at the start of the first step
func TestDeferredRunsBeforeFrameCallbacks(t *testing.T) {
	l := NewLoop(Config{PhysicsRate: 10 * time.Millisecond})
	r := &recorder{}
	l.Add(r)

	l.Defer(func() { r.add("deferred") })
	l.Defer(nil)

	if got := r.Calls(); len(got) != 0 {
		t.Fatalf("deferred work ran before the first step: %v", got)
	}

	l.Step(10 * time.Millisecond)
	assert.Equal(t, []string{"deferred", "physics 0.010", "update 0.010"}, r.Calls())
}

// TestDeferFromDeferredRunsNextStep tests that work deferred during the
// deferred phase waits for the following step
func TestDeferFromDeferredRunsNextStep(t *testing.T) {
	l := NewLoop(Config{})
	var order []int
	l.Defer(func() {
		order = append(order, 1)
		l.Defer(func() { order = append(order, 2) })
	})

	l.Step(0)
	assert.Equal(t, []int{1}, order)
	l.Step(0)
	assert.Equal(t, []int{1, 2}, order)
}

// TestDeferredPanicDoesNotDropBatch tests that a panicking deferred call is
// logged and the calls queued after it still run in the same step
func TestDeferredPanicDoesNotDropBatch(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	l := NewLoop(Config{}, WithLogger(zap.New(core).Sugar()))
	r := &recorder{}
	l.Add(r)

	ran := 0
	l.Defer(func() { panic("enter failed") })
	l.Defer(func() { ran++ })

	l.Step(0)
	assert.Equal(t, 1, ran, "second deferred call must run")
	assert.Equal(t, []string{"update 0.000"}, r.Calls(), "the frame continues after the panic")
	assert.Equal(t, 1, logs.FilterMessageSnippet("deferred call").Len())

	l.Step(0)
	assert.Equal(t, 1, ran, "deferred calls run exactly once")
}

// TestInputOrdering tests priority first, then FIFO within a priority
func TestInputOrdering(t *testing.T) {
	l := NewLoop(Config{})
	r := &recorder{}
	l.Add(r)

	require.NoError(t, l.Send(InputGeneral, "a"))
	require.NoError(t, l.SendWithPriority(InputGeneral, "urgent", 10))
	require.NoError(t, l.Send(InputGeneral, "b"))
	require.NoError(t, l.SendWithPriority(InputGeneral, "low", -1))
	require.NoError(t, l.SendWithPriority(InputGeneral, "urgent2", 10))

	l.Step(0)
	assert.Equal(t, []string{
		"input urgent",
		"input urgent2",
		"input a",
		"input b",
		"input low",
	}, filter(r.Calls(), "input"))
}

// TestInputKinds tests that each kind reaches its own callback
func TestInputKinds(t *testing.T) {
	l := NewLoop(Config{})
	r := &recorder{}
	l.Add(r)

	require.NoError(t, l.Send(InputGeneral, "click"))
	require.NoError(t, l.Send(InputUnhandled, "scroll"))
	require.NoError(t, l.Send(InputKey, "space"))

	l.Step(0)
	assert.Equal(t, []string{
		"input click",
		"unhandled scroll",
		"key space",
		"update 0.000",
	}, r.Calls())
}

// TestInputDuringStepIsNextFrame tests that input sent from a callback is
// delivered on the following step
func TestInputDuringStepIsNextFrame(t *testing.T) {
	l := NewLoop(Config{})
	r := &recorder{}
	r.onInput = func(event any) {
		if event == "first" {
			_ = l.Send(InputGeneral, "second")
		}
	}
	l.Add(r)

	require.NoError(t, l.Send(InputGeneral, "first"))
	l.Step(0)
	assert.Equal(t, []string{"input first"}, filter(r.Calls(), "input"))

	l.Step(0)
	assert.Equal(t, []string{"input first", "input second"}, filter(r.Calls(), "input"))
}

// TestSendErrors tests queue capacity and kind validation
func TestSendErrors(t *testing.T) {
	l := NewLoop(Config{MaxInputsPerFrame: 2})

	require.NoError(t, l.Send(InputGeneral, 1))
	require.NoError(t, l.Send(InputGeneral, 2))
	if err := l.Send(InputGeneral, 3); !errors.Is(err, ErrInputQueueFull) {
		t.Errorf("expected ErrInputQueueFull, got %v", err)
	}
	assert.Error(t, l.Send(InputKind(42), "x"))

	l.Step(0)
	assert.NoError(t, l.Send(InputGeneral, 4), "queue drains after a step")
}

// TestPhysicsAccumulator tests fixed steps carried across frames
func TestPhysicsAccumulator(t *testing.T) {
	l := NewLoop(Config{PhysicsRate: 10 * time.Millisecond})
	r := &recorder{}
	l.Add(r)

	l.Step(6 * time.Millisecond)
	assert.Empty(t, filter(r.Calls(), "physics"))

	l.Step(6 * time.Millisecond)
	assert.Len(t, filter(r.Calls(), "physics"), 1)

	l.Step(25 * time.Millisecond)
	assert.Len(t, filter(r.Calls(), "physics"), 3)
}

// TestPhysicsSpiralIsCapped tests that a long frame runs at most
// MaxPhysicsSteps and discards the rest
func TestPhysicsSpiralIsCapped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoop(Config{PhysicsRate: 10 * time.Millisecond, MaxPhysicsSteps: 3},
		WithLogger(zap.New(core).Sugar()))
	r := &recorder{}
	l.Add(r)

	l.Step(time.Second)
	assert.Len(t, filter(r.Calls(), "physics"), 3)
	assert.Equal(t, 1, logs.FilterMessageSnippet("Dropping").Len())

	// Nothing carries over from the dropped time.
	l.Step(5 * time.Millisecond)
	assert.Len(t, filter(r.Calls(), "physics"), 3)
}

// TestNegativeDelta tests that a negative frame time is clamped
func TestNegativeDelta(t *testing.T) {
	l := NewLoop(Config{})
	r := &recorder{}
	l.Add(r)

	l.Step(-time.Second)
	assert.Equal(t, []string{"update 0.000"}, r.Calls())
}

// TestFrameCount tests that every step advances the frame counter
func TestFrameCount(t *testing.T) {
	l := NewLoop(Config{})
	for i := 0; i < 5; i++ {
		l.Step(time.Millisecond)
	}
	if got := l.Frame(); got != 5 {
		t.Errorf("expected frame 5, got %d", got)
	}
}

// TestReceiversInOrder tests registration order across receivers
func TestReceiversInOrder(t *testing.T) {
	l := NewLoop(Config{})
	var mu sync.Mutex
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		l.Add(&funcReceiver{update: func(float64) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}})
	}
	l.Step(0)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

type funcReceiver struct {
	update func(delta float64)
}

func (f *funcReceiver) Update(delta float64) {
	if f.update != nil {
		f.update(delta)
	}
}
func (f *funcReceiver) PhysicsUpdate(float64) {}
func (f *funcReceiver) Input(any)             {}
func (f *funcReceiver) UnhandledInput(any)    {}
func (f *funcReceiver) UnhandledKeyInput(any) {}

// TestStartStop tests the ticker-driven loop
func TestStartStop(t *testing.T) {
	l := NewLoop(Config{FrameRate: 5 * time.Millisecond})
	r := &recorder{}
	l.Add(r)

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	if err := l.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	require.Eventually(t, func() bool { return l.Frame() >= 3 }, time.Second, time.Millisecond)
	l.Stop()

	frames := l.Frame()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frames, l.Frame(), "no steps after Stop")

	// Stop is idempotent and the loop can be restarted.
	l.Stop()
	require.NoError(t, l.Start(ctx))
	l.Stop()
}

// TestStopWithoutStart tests that Stop on an idle loop returns immediately
func TestStopWithoutStart(t *testing.T) {
	l := NewLoop(Config{})
	l.Stop()
}

// TestContextCancelStopsLoop tests that cancelling the start context ends
// the ticker goroutine
func TestContextCancelStopsLoop(t *testing.T) {
	l := NewLoop(Config{FrameRate: 2 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Start(ctx))

	require.Eventually(t, func() bool { return l.Frame() >= 1 }, time.Second, time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
	frames := l.Frame()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frames, l.Frame())
	l.Stop()
}

// TestPanicRecovery tests that a panicking receiver is logged and the
// frame still completes
func TestPanicRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	l := NewLoop(Config{}, WithLogger(zap.New(core).Sugar()))
	l.Add(&funcReceiver{update: func(float64) { panic("boom") }})

	l.safeStep(time.Millisecond)

	assert.Equal(t, uint64(1), l.Frame())
	entries := logs.FilterMessageSnippet("Recovered panic").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "boom")
}
