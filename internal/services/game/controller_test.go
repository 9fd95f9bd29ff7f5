package game

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/dependencies/mocks"
	"github.com/mcoot/gameroom-go/internal/games/connect4"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
	"github.com/mcoot/gameroom-go/internal/services/search"
	"github.com/mcoot/gameroom-go/internal/testutil"
)

const testIdleTTL = 5 * time.Minute

type ControllerSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	factory    adapter.Factory
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.clock, s.random, testIdleTTL, testutil.NopLogger())
	s.factory = connect4.NewFactory(50 * time.Millisecond)
	s.ctx = context.Background()
}

func (s *ControllerSuite) createGame() model.GameID {
	id, err := s.controller.CreateGame(s.ctx, s.factory)
	s.Require().NoError(err)
	return id
}

func (s *ControllerSuite) startedGame() (model.GameID, model.SessionID, model.SessionID) {
	id := s.createGame()
	alice, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)
	bob, err := s.controller.JoinGame(s.ctx, id, "bob")
	s.Require().NoError(err)
	return id, alice, bob
}

// CreateGame tests

func (s *ControllerSuite) TestCreateGameSucceeds() {
	id := s.createGame()

	s.True(strings.HasPrefix(id.String(), "game_"))

	state, err := s.controller.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.StageWaiting, state.Stage)
	s.Equal(model.GameTypeConnect4, state.Game)
}

func (s *ControllerSuite) TestCreateGameRetriesOnIDCollision() {
	s.random.QueueBytes([]byte{1, 2, 3, 4})
	first := s.createGame()

	// Same bytes again, then a fresh value
	s.random.QueueBytes([]byte{1, 2, 3, 4}, []byte{9, 9, 9, 9})
	second := s.createGame()

	s.NotEqual(first, second)

	_, err := s.controller.GetState(s.ctx, first)
	s.NoError(err)
	_, err = s.controller.GetState(s.ctx, second)
	s.NoError(err)
}

// JoinGame tests

func (s *ControllerSuite) TestJoinGameSucceeds() {
	id := s.createGame()

	sessionID, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(sessionID.String(), "session_"))

	state, err := s.controller.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, state.Players)
}

func (s *ControllerSuite) TestJoinGameUnknownGame() {
	_, err := s.controller.JoinGame(s.ctx, model.GameID("game_AAAAAAA"), "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestJoinGameEmptyUsername() {
	id := s.createGame()

	_, err := s.controller.JoinGame(s.ctx, id, "")
	s.ErrorIs(err, model.ErrUsernameTooShort)
}

func (s *ControllerSuite) TestJoinGameUsernameTooLong() {
	id := s.createGame()

	_, err := s.controller.JoinGame(s.ctx, id, strings.Repeat("a", MaxUsernameLength+1))
	s.ErrorIs(err, model.ErrUsernameTooLong)
}

func (s *ControllerSuite) TestJoinGameUsernameAtMaxLength() {
	id := s.createGame()

	_, err := s.controller.JoinGame(s.ctx, id, strings.Repeat("a", MaxUsernameLength))
	s.NoError(err)
}

func (s *ControllerSuite) TestJoinGameDuplicateUsername() {
	id := s.createGame()

	_, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, id, "alice")
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *ControllerSuite) TestJoinGameAfterStart() {
	id, _, _ := s.startedGame()

	_, err := s.controller.JoinGame(s.ctx, id, "carol")
	s.ErrorIs(err, model.ErrInvalidGameStage)
}

func (s *ControllerSuite) TestJoinGameSessionsAreDistinct() {
	_, alice, bob := s.startedGame()
	s.NotEqual(alice, bob)
}

// SubmitMove tests

func (s *ControllerSuite) TestSubmitMoveSucceeds() {
	id, alice, _ := s.startedGame()

	err := s.controller.SubmitMove(s.ctx, id, alice, json.RawMessage(`{"column": 3}`))
	s.Require().NoError(err)

	state, err := s.controller.GetState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, state.CanMove)
}

func (s *ControllerSuite) TestSubmitMoveUnknownGame() {
	_, alice, _ := s.startedGame()

	err := s.controller.SubmitMove(s.ctx, model.GameID("game_AAAAAAA"), alice, json.RawMessage(`{"column": 0}`))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestSubmitMoveUnknownSession() {
	id, _, _ := s.startedGame()

	err := s.controller.SubmitMove(s.ctx, id, model.SessionID("session_bogus"), json.RawMessage(`{"column": 0}`))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestSubmitMoveOutOfTurn() {
	id, _, bob := s.startedGame()

	err := s.controller.SubmitMove(s.ctx, id, bob, json.RawMessage(`{"column": 0}`))
	s.ErrorIs(err, model.ErrInvalidPlayer)
}

// GetState tests

func (s *ControllerSuite) TestGetStateUnknownGame() {
	_, err := s.controller.GetState(s.ctx, model.GameID("game_AAAAAAA"))
	s.ErrorIs(err, model.ErrGameNotFound)
}

// ListGames tests

func (s *ControllerSuite) TestListGamesDefaultOrder() {
	first := s.createGame()
	s.clock.Advance(time.Minute)
	second := s.createGame()

	games, err := s.controller.ListGames(s.ctx, search.DefaultOptions())
	s.Require().NoError(err)
	s.Require().Len(games, 2)

	// Most recently updated first
	s.Equal(second, games[0].GameID)
	s.Equal(first, games[1].GameID)
}

func (s *ControllerSuite) TestListGamesEmpty() {
	games, err := s.controller.ListGames(s.ctx, search.DefaultOptions())
	s.Require().NoError(err)
	s.Empty(games)
}

func (s *ControllerSuite) TestListGamesInvalidPage() {
	opts := search.DefaultOptions()
	opts.Page = 0

	_, err := s.controller.ListGames(s.ctx, opts)
	s.ErrorIs(err, model.ErrInvalidPage)
}

func (s *ControllerSuite) TestListGamesReflectsJoins() {
	id := s.createGame()
	_, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)

	games, err := s.controller.ListGames(s.ctx, search.DefaultOptions())
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal([]string{"alice"}, games[0].Players)
	s.Equal(model.StageWaiting, games[0].Stage)
}

// Subscribe tests

func (s *ControllerSuite) TestSubscribeUnknownGame() {
	_, err := s.controller.Subscribe(s.ctx, model.GameID("game_AAAAAAA"))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestSubscribeSeesJoin() {
	id := s.createGame()

	sub, err := s.controller.Subscribe(s.ctx, id)
	s.Require().NoError(err)
	defer sub.Close()

	before, err := sub.Wait(s.ctx, 0)
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)

	after, err := sub.Wait(s.ctx, before)
	s.Require().NoError(err)
	s.Greater(after, before)
}

// Idle eviction tests

func (s *ControllerSuite) TestIdleGameIsEvicted() {
	stale := s.createGame()

	s.clock.Advance(testIdleTTL + time.Second)
	fresh := s.createGame()

	_, err := s.controller.GetState(s.ctx, stale)
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.controller.GetState(s.ctx, fresh)
	s.NoError(err)
}

func (s *ControllerSuite) TestActiveGameSurvivesSweep() {
	id := s.createGame()

	s.clock.Advance(testIdleTTL - time.Second)
	s.createGame()

	_, err := s.controller.GetState(s.ctx, id)
	s.NoError(err)
}

func (s *ControllerSuite) TestJoinRefreshesIdleTimer() {
	id := s.createGame()

	s.clock.Advance(testIdleTTL - time.Second)
	_, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)

	s.clock.Advance(testIdleTTL - time.Second)
	s.createGame()

	_, err = s.controller.GetState(s.ctx, id)
	s.NoError(err)
}

func (s *ControllerSuite) TestEvictionFailsSuspendedWaiters() {
	stale := s.createGame()

	sub, err := s.controller.Subscribe(s.ctx, stale)
	s.Require().NoError(err)
	defer sub.Close()

	before, err := sub.Wait(s.ctx, 0)
	s.Require().NoError(err)

	s.clock.Advance(testIdleTTL + time.Second)
	s.createGame()

	_, err = sub.Wait(s.ctx, before)
	s.ErrorIs(err, model.ErrNotificationFailed)
}

func (s *ControllerSuite) TestSweepSkipsLockedGame() {
	blocking := &blockingAdapter{
		notifier: notify.NewWithTimeout(50 * time.Millisecond),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	id, err := s.controller.CreateGame(s.ctx, func(model.GameID) adapter.GameAdapter {
		return blocking
	})
	s.Require().NoError(err)

	sessionID, err := s.controller.JoinGame(s.ctx, id, "alice")
	s.Require().NoError(err)

	// Hold the game's lock by blocking inside a move
	done := make(chan error, 1)
	go func() {
		done <- s.controller.SubmitMove(s.ctx, id, sessionID, json.RawMessage(`{}`))
	}()
	<-blocking.started

	// The game is stale, but mid-operation it must be retained
	s.clock.Advance(testIdleTTL + time.Hour)
	s.createGame()

	close(blocking.release)
	s.Require().NoError(<-done)

	_, err = s.controller.GetState(s.ctx, id)
	s.NoError(err)
}

// blockingAdapter blocks inside PlayMove until released, holding the entry
// lock so the sweep's TryLock cannot take it.
type blockingAdapter struct {
	notifier *notify.Notifier
	players  []string
	started  chan struct{}
	release  chan struct{}
}

var _ adapter.GameAdapter = (*blockingAdapter)(nil)

func (b *blockingAdapter) Notifier() *notify.Notifier { return b.notifier }

func (b *blockingAdapter) AddPlayer(username string) error {
	b.players = append(b.players, username)
	return nil
}

func (b *blockingAdapter) HasPlayer(username string) bool {
	for _, p := range b.players {
		if p == username {
			return true
		}
	}
	return false
}

func (b *blockingAdapter) PlayMove(model.GenericGameMove) error {
	close(b.started)
	<-b.release
	return nil
}

func (b *blockingAdapter) Stage() model.Stage { return model.StageWaiting }

func (b *blockingAdapter) EncodedState() (*model.GenericGameState, error) {
	return &model.GenericGameState{
		Players: b.players,
		CanMove: []string{},
		Winners: []string{},
		Stage:   model.StageWaiting,
		Payload: json.RawMessage(`{}`),
	}, nil
}

func (b *blockingAdapter) Type() model.GameType { return model.GameTypeConnect4 }
