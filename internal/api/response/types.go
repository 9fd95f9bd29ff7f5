package response

import "github.com/mcoot/gameroom-go/internal/model"

// CreateGameResponse is the response for creating a game
type CreateGameResponse struct {
	GameID string `json:"game_id"`
}

// JoinGameResponse is the response for joining a game
type JoinGameResponse struct {
	SessionID string `json:"session_id"`
}

// SubmitMoveResponse is the response for submitting a move
type SubmitMoveResponse struct {
	Success bool `json:"success"`
}

// ListGamesResponse is the response for listing games
type ListGamesResponse struct {
	Games []model.GameSummary `json:"games"`
}

// PollResponse is the response for a long-poll request. Clock is the latest
// observed logical clock value; pass it back as "since" on the next poll.
// Updated is false when the poll timed out with no change.
type PollResponse struct {
	Clock   uint64 `json:"clock"`
	Updated bool   `json:"updated"`
}
