// Package game implements the session registry: the concurrent map of live
// games, per-game locking and lifecycle, session bindings, and idle-game
// garbage collection.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/dependencies/clock"
	"github.com/mcoot/gameroom-go/internal/dependencies/random"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
	"github.com/mcoot/gameroom-go/internal/services/search"
)

const (
	// DefaultIdleTTL is how long a game may go without a successful join or
	// move before it becomes eligible for eviction
	DefaultIdleTTL = 5 * time.Minute

	// MaxUsernameLength bounds usernames at join time
	MaxUsernameLength = 12
)

// entry is one live game: the adapter instance, its session bindings and its
// idle timestamp, all guarded by the entry's own mutex. Entries never share a
// lock; operations on different games do not contend.
type entry struct {
	mu         sync.Mutex
	adapter    adapter.GameAdapter
	sessions   map[model.SessionID]*model.Session
	lastUpdate time.Time
}

// Controller owns the registry of live games. The map supports concurrent
// reads and atomic insert-if-absent without a global lock; all game-body work
// happens under the addressed game's entry lock only.
type Controller struct {
	games   sync.Map // model.GameID -> *entry
	clock   clock.Clock
	random  random.Random
	idleTTL time.Duration
	logger  *slog.Logger
}

// NewController creates a session registry. A non-positive idleTTL falls
// back to DefaultIdleTTL.
func NewController(clk clock.Clock, rnd random.Random, idleTTL time.Duration, logger *slog.Logger) *Controller {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Controller{
		clock:   clk,
		random:  rnd,
		idleTTL: idleTTL,
		logger:  logger,
	}
}

// CreateGame inserts a new game built by the factory and returns its ID.
// A GC sweep runs first to bound memory. Safe under concurrent creators:
// insertion is insert-if-absent with the ID regenerated on collision.
func (c *Controller) CreateGame(ctx context.Context, factory adapter.Factory) (model.GameID, error) {
	c.sweepIdle()

	now := c.clock.Now()
	for {
		id := model.NewGameID(c.random)
		e := &entry{
			adapter:    factory(id),
			sessions:   make(map[model.SessionID]*model.Session),
			lastUpdate: now,
		}
		if _, collided := c.games.LoadOrStore(id, e); collided {
			continue
		}

		c.logger.Info("game created",
			slog.String("game_id", id.String()),
			slog.String("game_type", string(e.adapter.Type())),
		)
		return id, nil
	}
}

// JoinGame admits a player into a waiting game and returns a new session ID
// bound to the username.
func (c *Controller) JoinGame(ctx context.Context, gameID model.GameID, username string) (model.SessionID, error) {
	e, err := c.lookup(gameID)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if stage := e.adapter.Stage(); stage != model.StageWaiting {
		return "", fmt.Errorf("%w: cannot join a game in stage %q", model.ErrInvalidGameStage, stage)
	}
	if err := validateUsername(username); err != nil {
		return "", err
	}
	if e.adapter.HasPlayer(username) {
		return "", fmt.Errorf("%w: %q", model.ErrUsernameTaken, username)
	}

	if err := e.adapter.AddPlayer(username); err != nil {
		return "", err
	}

	// Session IDs only need to be unique within this game
	var sessionID model.SessionID
	for {
		sessionID = model.NewSessionID(c.random)
		if _, taken := e.sessions[sessionID]; !taken {
			break
		}
	}
	e.sessions[sessionID] = &model.Session{Username: username}
	e.lastUpdate = c.clock.Now()

	c.logger.Info("player joined",
		slog.String("game_id", gameID.String()),
		slog.String("username", username),
	)
	return sessionID, nil
}

// SubmitMove resolves the session's username and delegates the payload to
// the adapter, whose own stage and legality checks are authoritative.
func (c *Controller) SubmitMove(ctx context.Context, gameID model.GameID, sessionID model.SessionID, payload []byte) error {
	e, err := c.lookup(gameID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, sessionID)
	}

	if err := e.adapter.PlayMove(model.GenericGameMove{
		Player:  session.Username,
		Payload: payload,
	}); err != nil {
		return err
	}

	e.lastUpdate = c.clock.Now()
	return nil
}

// GetState returns the adapter's current encoded state annotated with the
// game's type tag.
func (c *Controller) GetState(ctx context.Context, gameID model.GameID) (*model.GenericGameState, error) {
	e, err := c.lookup(gameID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.adapter.EncodedState()
	if err != nil {
		return nil, err
	}
	state.Game = e.adapter.Type()
	return state, nil
}

// ListGames builds summaries from all live games, locking each only briefly,
// and hands them to the search engine.
func (c *Controller) ListGames(ctx context.Context, opts search.Options) ([]model.GameSummary, error) {
	var summaries []model.GameSummary
	c.games.Range(func(key, value any) bool {
		id := key.(model.GameID)
		e := value.(*entry)

		e.mu.Lock()
		state, err := e.adapter.EncodedState()
		gameType := e.adapter.Type()
		lastUpdate := e.lastUpdate
		e.mu.Unlock()

		if err != nil {
			// A single broken game must not take down the listing
			c.logger.Warn("skipping unreadable game in listing",
				slog.String("game_id", id.String()),
				slog.String("error", err.Error()),
			)
			return true
		}

		summaries = append(summaries, model.GameSummary{
			GameID:      id,
			GameType:    gameType,
			Players:     state.Players,
			Stage:       state.Stage,
			LastUpdated: lastUpdate,
		})
		return true
	})

	return search.Apply(summaries, opts)
}

// Subscribe returns a subscription on the game's notifier. No game lock is
// held by the caller while a waiter is suspended.
func (c *Controller) Subscribe(ctx context.Context, gameID model.GameID) (*notify.Subscription, error) {
	e, err := c.lookup(gameID)
	if err != nil {
		return nil, err
	}
	return e.adapter.Notifier().Subscribe(), nil
}

func (c *Controller) lookup(gameID model.GameID) (*entry, error) {
	value, ok := c.games.Load(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrGameNotFound, gameID)
	}
	return value.(*entry), nil
}

// sweepIdle evicts games idle beyond the TTL, but only when their lock can
// be taken without blocking: a game mid-operation is conservatively retained
// for this sweep and reconsidered next time. Eviction removes the entry
// entirely (no tombstone) and closes its notifier so suspended waiters fail
// fast instead of timing out.
func (c *Controller) sweepIdle() {
	now := c.clock.Now()
	c.games.Range(func(key, value any) bool {
		e := value.(*entry)
		if !e.mu.TryLock() {
			return true
		}
		evict := now.Sub(e.lastUpdate) > c.idleTTL
		if evict {
			c.games.Delete(key)
		}
		e.mu.Unlock()

		if evict {
			e.adapter.Notifier().Close()
			c.logger.Info("idle game evicted",
				slog.String("game_id", key.(model.GameID).String()),
			)
		}
		return true
	})
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username must not be empty", model.ErrUsernameTooShort)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: maximum length is %d", model.ErrUsernameTooLong, MaxUsernameLength)
	}
	return nil
}
