package service

import (
	"errors"
)

// Guard failures surfaced to users as-is
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyOnboarded  = errors.New("user is already onboarded")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNotJoinable   = errors.New("game is not open for joining")
	ErrGameNotStakeable  = errors.New("game is not open for staking")
	ErrGameFull          = errors.New("game already has maximum number of players")
	ErrAlreadyPlayer     = errors.New("you have already joined this game as a player")
	ErrAlreadyStaker     = errors.New("you have already joined this game as a staker")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotPlayer         = errors.New("you are not a player in this game")
	ErrNotGameOwner      = errors.New("only the game owner can change its status")
	ErrInvalidTransition = errors.New("invalid game status transition")
	ErrNotEnoughPlayers  = errors.New("game needs two players to start")
	ErrOutcomeRequired   = errors.New("final outcome is required: both players have not chosen yet")
)

// ValidationError reports a rejected input value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
