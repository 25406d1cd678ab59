// Package demo is a small platformer character driven by a framefsm
// coordinator. It backs the CLI and the end-to-end tests.
package demo

import (
	"fmt"

	"github.com/comalice/framefsm"
)

// Player states.
const (
	StateIdle    framefsm.StateID = "idle"
	StateMoving  framefsm.StateID = "moving"
	StateJumping framefsm.StateID = "jumping"
)

// Action is the input payload the player states understand.
type Action string

const (
	ActionMoveLeft  Action = "move_left"
	ActionMoveRight Action = "move_right"
	ActionStop      Action = "stop"
	ActionJump      Action = "jump"
)

// Player is the controlled entity.
type Player struct {
	Name      string
	X, Y      float64
	VX, VY    float64
	Facing    int // -1 left, 1 right
	OnGround  bool
	Animation string
}

// NewPlayer creates a grounded player facing right.
func NewPlayer(name string) *Player {
	return &Player{Name: name, Facing: 1, OnGround: true}
}

func (p *Player) String() string {
	return fmt.Sprintf("%s at (%.2f, %.2f) %s", p.Name, p.X, p.Y, p.Animation)
}

// NewMachine wires the three player states around p, starting in idle.
func NewMachine(p *Player, opts ...framefsm.Option[*Player]) (*framefsm.Coordinator[*Player], error) {
	return framefsm.NewBuilder[*Player](StateIdle).
		Entity(p).
		State(StateIdle, &Idle{}).
		State(StateMoving, &Moving{Speed: 4}).
		State(StateJumping, &Jumping{Impulse: 6, Gravity: 18}).
		With(opts...).
		Build()
}

// actionOf accepts an Action or a plain string.
func actionOf(event any) (Action, bool) {
	switch v := event.(type) {
	case Action:
		return v, true
	case string:
		return Action(v), true
	default:
		return "", false
	}
}

// facingFor returns the direction of a move action, or 0.
func facingFor(a Action) int {
	switch a {
	case ActionMoveLeft:
		return -1
	case ActionMoveRight:
		return 1
	default:
		return 0
	}
}
