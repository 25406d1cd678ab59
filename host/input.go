package host

import (
	"errors"
	"sort"
)

// ErrInputQueueFull is returned when a step's input batch is at capacity.
var ErrInputQueueFull = errors.New("input queue full")

// InputKind selects which receiver callback an input is delivered to.
type InputKind int

const (
	// InputGeneral is delivered through Input.
	InputGeneral InputKind = iota
	// InputUnhandled is delivered through UnhandledInput.
	InputUnhandled
	// InputKey is delivered through UnhandledKeyInput.
	InputKey
)

func (k InputKind) String() string {
	switch k {
	case InputGeneral:
		return "input"
	case InputUnhandled:
		return "unhandled_input"
	case InputKey:
		return "unhandled_key_input"
	default:
		return "unknown"
	}
}

// pendingInput adds sequencing metadata for deterministic ordering.
type pendingInput struct {
	Kind        InputKind
	Event       any
	SequenceNum uint64
	Priority    int
}

// sortInputs orders a batch: higher priority first, then FIFO.
func sortInputs(inputs []pendingInput) {
	sort.SliceStable(inputs, func(i, j int) bool {
		if inputs[i].Priority != inputs[j].Priority {
			return inputs[i].Priority > inputs[j].Priority
		}
		return inputs[i].SequenceNum < inputs[j].SequenceNum
	})
}

func deliverInput(r Receiver, in pendingInput) {
	switch in.Kind {
	case InputGeneral:
		r.Input(in.Event)
	case InputUnhandled:
		r.UnhandledInput(in.Event)
	case InputKey:
		r.UnhandledKeyInput(in.Event)
	}
}
