package session

import (
	"errors"
	"fmt"
)

var (
	ErrSessionExists = errors.New("session already exists")
	ErrSessionClosed = errors.New("session closed")
	// ErrIgnored marks a request dropped by a state or authority guard.
	// It is never shown to the user.
	ErrIgnored = errors.New("request ignored")
)

// UserError is a rejection whose message is safe to show to the connection that caused it.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

func userErrorf(format string, args ...interface{}) *UserError {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrSessionNotFound = &UserError{Msg: "That game could not be found."}
	ErrAlreadyHost     = &UserError{Msg: "You are already hosting this game."}
	ErrNotInSession    = &UserError{Msg: "You are not part of a game."}
	ErrAlreadyPlaying  = &UserError{Msg: "You are already playing in this game."}
	ErrGameInProgress  = &UserError{Msg: "This game has already started."}
	ErrNameRequired    = &UserError{Msg: "Please enter a name."}
)
