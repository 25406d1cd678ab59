package framefsm

import "errors"

var (
	// ErrNoEntity is returned when activation is attempted without a
	// controlled entity.
	ErrNoEntity = errors.New("controlled entity is not assigned")
	// ErrNoActiveState is returned when a state start is requested with no
	// active state.
	ErrNoActiveState = errors.New("no active state")
	// ErrUnknownState is returned when a transition target is not registered.
	ErrUnknownState = errors.New("unknown state")
	// ErrDuplicateState is returned by Register for an id already in use.
	ErrDuplicateState = errors.New("duplicate state ID")
	// ErrNilState is returned by Register for a nil State.
	ErrNilState = errors.New("nil state")
	// ErrEmptyStateID is returned by Register for an empty id.
	ErrEmptyStateID = errors.New("empty state ID")
	// ErrBadPayload is returned by Dispatch when a tick callback gets a
	// payload that is not a number or duration.
	ErrBadPayload = errors.New("invalid callback payload")
	// ErrUnknownCallback is returned by Dispatch for an unrecognized kind.
	ErrUnknownCallback = errors.New("unknown callback kind")
)
