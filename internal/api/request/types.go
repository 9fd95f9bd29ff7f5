package request

import "encoding/json"

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	GameType string `json:"game_type"`
}

// JoinGameRequest is the request body for joining a game
type JoinGameRequest struct {
	Username string `json:"username"`
}

// SubmitMoveRequest is the request body for submitting a move. The payload
// is passed through to the game adapter untouched.
type SubmitMoveRequest struct {
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}
