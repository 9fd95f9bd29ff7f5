package model

import "errors"

// Common errors used across the application. All are request-scoped and
// recoverable; none should ever escape as a panic.
var (
	// Identifier errors
	ErrInvalidGameID    = errors.New("invalid game id")
	ErrInvalidSessionID = errors.New("invalid session id")

	// Lookup errors
	ErrGameNotFound    = errors.New("game not found")
	ErrSessionNotFound = errors.New("session not found")

	// Join errors
	ErrUsernameTooShort = errors.New("username is too short")
	ErrUsernameTooLong  = errors.New("username is too long")
	ErrUsernameTaken    = errors.New("username is already in this game")

	// Game errors
	ErrInvalidGameStage    = errors.New("operation not valid in current game stage")
	ErrInvalidPlayer       = errors.New("player cannot move at the moment")
	ErrInvalidMove         = errors.New("invalid move")
	ErrPlayerLimitExceeded = errors.New("player limit exceeded")
	ErrUnknownGameType     = errors.New("unknown game type")

	// Listing errors
	ErrInvalidPage = errors.New("page number must be at least 1")

	// Notification errors
	ErrNotificationFailed = errors.New("internal notification error")
)
