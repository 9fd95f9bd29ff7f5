package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/gameroom-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidGameID       = "INVALID_GAME_ID"
	CodeInvalidSessionID    = "INVALID_SESSION_ID"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeUsernameTooShort    = "USERNAME_TOO_SHORT"
	CodeUsernameTooLong     = "USERNAME_TOO_LONG"
	CodeUsernameTaken       = "USERNAME_TAKEN"
	CodeInvalidGameStage    = "INVALID_GAME_STAGE"
	CodeInvalidPlayer       = "INVALID_PLAYER"
	CodeInvalidMove         = "INVALID_MOVE"
	CodePlayerLimitExceeded = "PLAYER_LIMIT_EXCEEDED"
	CodeUnknownGameType     = "UNKNOWN_GAME_TYPE"
	CodeInvalidPage         = "INVALID_PAGE"
	CodeNotificationFailed  = "NOTIFICATION_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrInvalidGameID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGameID, "Invalid game id"}}
	case errors.Is(err, model.ErrInvalidSessionID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidSessionID, "Invalid session id"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrUsernameTooShort):
		return &httpError{http.StatusBadRequest, APIError{CodeUsernameTooShort, "Username is too short"}}
	case errors.Is(err, model.ErrUsernameTooLong):
		return &httpError{http.StatusBadRequest, APIError{CodeUsernameTooLong, "Username is too long"}}
	case errors.Is(err, model.ErrUsernameTaken):
		return &httpError{http.StatusConflict, APIError{CodeUsernameTaken, "Username is already in this game"}}
	case errors.Is(err, model.ErrInvalidGameStage):
		return &httpError{http.StatusConflict, APIError{CodeInvalidGameStage, "Operation not valid in current game stage"}}
	case errors.Is(err, model.ErrInvalidPlayer):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidPlayer, "Not this player's turn"}}
	case errors.Is(err, model.ErrInvalidMove):
		return &httpError{http.StatusConflict, APIError{CodeInvalidMove, "Invalid move"}}
	case errors.Is(err, model.ErrPlayerLimitExceeded):
		return &httpError{http.StatusConflict, APIError{CodePlayerLimitExceeded, "Game is full"}}
	case errors.Is(err, model.ErrUnknownGameType):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownGameType, "Unknown game type"}}
	case errors.Is(err, model.ErrInvalidPage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPage, "Page number must be at least 1"}}
	case errors.Is(err, model.ErrNotificationFailed):
		return &httpError{http.StatusInternalServerError, APIError{CodeNotificationFailed, "Notification channel failed"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
