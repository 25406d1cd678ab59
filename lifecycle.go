package framefsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Phase is the coordinator's own lifecycle position. It is observational:
// dispatch decisions are made on the active state, not on the phase.
type Phase string

const (
	// PhaseUnconfigured is the phase before any activation was requested.
	PhaseUnconfigured Phase = "unconfigured"
	// PhasePending means the initial activation is scheduled but has not run.
	PhasePending Phase = "pending"
	// PhaseRunning means a state is active.
	PhaseRunning Phase = "running"
	// PhaseInert means no state is active after a failed activation.
	PhaseInert Phase = "inert"
	// PhaseMisconfigured means activation was refused because the controlled
	// entity was missing.
	PhaseMisconfigured Phase = "misconfigured"
)

const (
	eventSchedule     = "schedule"
	eventMisconfigure = "misconfigure"
	eventActivate     = "activate"
	eventClear        = "clear"
)

// lifecycle wraps a looplab FSM tracking the coordinator phase.
type lifecycle struct {
	fsm    *fsm.FSM
	logger *zap.SugaredLogger
}

func newLifecycle(machine string, logger *zap.SugaredLogger) *lifecycle {
	l := &lifecycle{logger: logger}
	l.fsm = fsm.NewFSM(
		string(PhaseUnconfigured),
		fsm.Events{
			{Name: eventSchedule, Src: []string{string(PhaseUnconfigured)}, Dst: string(PhasePending)},
			{Name: eventMisconfigure, Src: []string{string(PhaseUnconfigured), string(PhasePending)}, Dst: string(PhaseMisconfigured)},
			{Name: eventActivate, Src: []string{
				string(PhaseUnconfigured),
				string(PhasePending),
				string(PhaseRunning),
				string(PhaseInert),
				string(PhaseMisconfigured),
			}, Dst: string(PhaseRunning)},
			{Name: eventClear, Src: []string{
				string(PhaseUnconfigured),
				string(PhasePending),
				string(PhaseRunning),
				string(PhaseInert),
			}, Dst: string(PhaseInert)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debugf("Machine %s phase %s -> %s", machine, e.Src, e.Dst)
			},
		},
	)
	return l
}

// fire moves the phase if the event applies to the current phase. Events
// that do not apply, or that would not change the phase, are ignored.
func (l *lifecycle) fire(event string) {
	if !l.fsm.Can(event) {
		return
	}
	err := l.fsm.Event(context.Background(), event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	l.logger.Warnf("Lifecycle event %s rejected in phase %s: %v", event, l.fsm.Current(), err)
}

func (l *lifecycle) current() Phase {
	return Phase(l.fsm.Current())
}
