package demo

import "github.com/comalice/framefsm"

// Idle stands still until a move or jump arrives.
type Idle struct {
	framefsm.Base[*Player]
	Elapsed float64
}

func (s *Idle) Enter(b framefsm.Binding[*Player]) {
	s.Elapsed = 0
	b.Entity.VX = 0
	b.Entity.Animation = "idle"
}

func (s *Idle) Update(_ framefsm.Binding[*Player], delta float64) {
	s.Elapsed += delta
}

func (s *Idle) Input(b framefsm.Binding[*Player], event any) {
	a, ok := actionOf(event)
	if !ok {
		return
	}
	if dir := facingFor(a); dir != 0 {
		b.Entity.Facing = dir
		_ = b.Machine.TransitionTo(StateMoving)
	}
}

func (s *Idle) UnhandledKeyInput(b framefsm.Binding[*Player], event any) {
	if a, ok := actionOf(event); ok && a == ActionJump {
		_ = b.Machine.TransitionTo(StateJumping)
	}
}

// Moving runs in the facing direction at Speed units per second.
type Moving struct {
	framefsm.Base[*Player]
	Speed float64
}

func (s *Moving) Enter(b framefsm.Binding[*Player]) {
	b.Entity.VX = float64(b.Entity.Facing) * s.Speed
	b.Entity.Animation = "run"
}

func (s *Moving) Exit(b framefsm.Binding[*Player]) {
	b.Entity.VX = 0
}

func (s *Moving) PhysicsUpdate(b framefsm.Binding[*Player], delta float64) {
	b.Entity.X += b.Entity.VX * delta
}

func (s *Moving) Input(b framefsm.Binding[*Player], event any) {
	a, ok := actionOf(event)
	if !ok {
		return
	}
	if a == ActionStop {
		_ = b.Machine.TransitionTo(StateIdle)
		return
	}
	if dir := facingFor(a); dir != 0 && dir != b.Entity.Facing {
		b.Entity.Facing = dir
		b.Entity.VX = float64(dir) * s.Speed
	}
}

func (s *Moving) UnhandledKeyInput(b framefsm.Binding[*Player], event any) {
	if a, ok := actionOf(event); ok && a == ActionJump {
		_ = b.Machine.TransitionTo(StateJumping)
	}
}

// Jumping applies an upward Impulse and falls under Gravity until landing,
// then returns to idle.
type Jumping struct {
	framefsm.Base[*Player]
	Impulse float64
	Gravity float64
}

func (s *Jumping) Enter(b framefsm.Binding[*Player]) {
	b.Entity.VY = s.Impulse
	b.Entity.OnGround = false
	b.Entity.Animation = "jump"
}

func (s *Jumping) Exit(b framefsm.Binding[*Player]) {
	b.Entity.VY = 0
	b.Entity.Y = 0
	b.Entity.OnGround = true
}

func (s *Jumping) PhysicsUpdate(b framefsm.Binding[*Player], delta float64) {
	p := b.Entity
	p.VY -= s.Gravity * delta
	p.Y += p.VY * delta
	if p.Y <= 0 {
		_ = b.Machine.TransitionTo(StateIdle)
	}
}
