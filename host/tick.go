package host

import "time"

// Step runs one frame with the given elapsed time. A negative delta is
// treated as zero.
func (l *Loop) Step(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}

	l.stepMu.Lock()
	defer l.stepMu.Unlock()
	defer l.advanceFrame()

	// Phase 1: Deferred calls queued during the previous pass
	l.runDeferred()

	// Phase 2: Input batch in deterministic order
	l.deliverInputs()

	// Phase 3: Fixed physics steps
	l.stepPhysics(delta)

	// Phase 4: Frame update
	seconds := delta.Seconds()
	for _, r := range l.receivers {
		r.Update(seconds)
	}
}

func (l *Loop) runDeferred() {
	l.mu.Lock()
	deferred := l.deferred
	l.deferred = nil
	l.mu.Unlock()

	// Calls deferred from inside these run on the following step.
	for _, fn := range deferred {
		l.runDeferredCall(fn)
	}
}

// runDeferredCall runs fn, recovering a panic so the rest of the batch
// still runs.
func (l *Loop) runDeferredCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorf("Recovered panic in deferred call: %v", r)
		}
	}()
	fn()
}

// collectInputs atomically retrieves and clears the input batch.
func (l *Loop) collectInputs() []pendingInput {
	l.mu.Lock()
	defer l.mu.Unlock()

	inputs := l.inputs
	l.inputs = make([]pendingInput, 0, cap(inputs))
	return inputs
}

func (l *Loop) deliverInputs() {
	inputs := l.collectInputs()
	sortInputs(inputs)
	for _, in := range inputs {
		for _, r := range l.receivers {
			deliverInput(r, in)
		}
	}
}

func (l *Loop) stepPhysics(delta time.Duration) {
	rate := l.cfg.PhysicsRate
	l.accum += delta

	steps := 0
	for l.accum >= rate && steps < l.cfg.MaxPhysicsSteps {
		for _, r := range l.receivers {
			r.PhysicsUpdate(rate.Seconds())
		}
		l.accum -= rate
		steps++
	}
	if l.accum >= rate {
		l.logger.Debugf("Dropping %v of physics time after %d steps", l.accum, steps)
		l.accum = 0
	}
}

func (l *Loop) advanceFrame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame++
}
