package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage represents a game's lifecycle phase. Transitions are monotonic:
// Waiting -> InProgress -> Ended, with no back-transitions.
type Stage string

const (
	StageWaiting    Stage = "waiting"     // Accepting players
	StageInProgress Stage = "in_progress" // Moves being played
	StageEnded      Stage = "ended"       // Terminal
)

// Order returns the stage's position in the lifecycle, for sorting.
func (s Stage) Order() int {
	switch s {
	case StageWaiting:
		return 0
	case StageInProgress:
		return 1
	case StageEnded:
		return 2
	default:
		return 3
	}
}

// ParseStage converts the wire form of a stage
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageWaiting, StageInProgress, StageEnded:
		return Stage(s), nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// GameType identifies a registered game kind
type GameType string

const (
	GameTypeConnect4 GameType = "connect_4"
	GameTypeSnake    GameType = "snake"
)

// ParseGameType converts the wire form of a game type
func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameTypeConnect4, GameTypeSnake:
		return GameType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGameType, s)
	}
}

// Session binds a session ID to the username it was issued for. Sessions are
// owned by exactly one game, created on join and never mutated.
type Session struct {
	Username string
}

// GameSummary is a read-only projection of one game, produced on demand for
// listing. It is never persisted.
type GameSummary struct {
	GameID      GameID    `json:"game_id"`
	GameType    GameType  `json:"game_type"`
	Players     []string  `json:"players"`
	Stage       Stage     `json:"stage"`
	LastUpdated time.Time `json:"last_updated"`
}

// GenericGameState is the game-type-agnostic snapshot of a game, as exposed
// to clients. Payload carries the game-specific board encoding.
type GenericGameState struct {
	Game    GameType        `json:"game"`
	Players []string        `json:"players"`
	CanMove []string        `json:"can_move"`
	Winners []string        `json:"winners"`
	Stage   Stage           `json:"stage"`
	Payload json.RawMessage `json:"payload"`
}

// GenericGameMove is a move submission with the game-specific payload left
// opaque; the adapter decodes and validates it.
type GenericGameMove struct {
	Player  string
	Payload json.RawMessage
}
