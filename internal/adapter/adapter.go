// Package adapter defines the capability contract a pluggable game type must
// satisfy. The session registry depends only on this interface and never on
// concrete game logic.
package adapter

import (
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
)

// GameAdapter is one game instance's rule engine. Implementations are not
// required to be safe for concurrent use; the registry serializes all calls
// per game under that game's lock.
//
// Implementations must turn every rule violation into one of the model
// sentinel errors (ErrInvalidMove, ErrInvalidPlayer, ErrInvalidGameStage,
// ErrPlayerLimitExceeded) rather than panicking: nothing may escape the lock
// boundary as a runtime fault.
type GameAdapter interface {
	// Notifier returns the game's change notifier. The adapter sends on it
	// after every successful join and move.
	Notifier() *notify.Notifier

	// AddPlayer admits a player. Capacity and the transition to InProgress
	// are implementation-defined.
	AddPlayer(username string) error

	// HasPlayer reports whether the username is already in the game.
	HasPlayer(username string) bool

	// PlayMove validates turn order and move legality, then applies the move.
	PlayMove(move model.GenericGameMove) error

	// Stage reports the game's lifecycle phase. It only ever advances.
	Stage() model.Stage

	// EncodedState returns the game-type-agnostic snapshot of the game.
	// The registry annotates it with the game's type tag.
	EncodedState() (*model.GenericGameState, error)

	// Type identifies the game kind.
	Type() model.GameType
}

// Factory constructs an empty adapter in the Waiting stage for a new game.
type Factory func(id model.GameID) GameAdapter
