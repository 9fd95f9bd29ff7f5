package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameroom-go/internal/api"
	"github.com/mcoot/gameroom-go/internal/api/apierr"
	"github.com/mcoot/gameroom-go/internal/api/response"
	"github.com/mcoot/gameroom-go/internal/factory"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/testutil"
)

// testServer wraps the API handler for in-process requests
type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// API tests are integration tests - use the production factory with real
	// random/clock, and a short poll timeout to keep timeout tests fast
	app := factory.New(factory.Config{
		Logger:      testutil.NopLogger(),
		PollTimeout: 100 * time.Millisecond,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		GameController: app.GameController,
		Factories:      app.Factories,
	})

	return &testServer{handler: router}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createGame(t *testing.T, gameType string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]string{"game_type": gameType})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.CreateGameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.GameID)
	return resp.GameID
}

func (ts *testServer) joinGame(t *testing.T, gameID, username string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/join", map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.JoinGameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t)

	gameID := ts.createGame(t, "connect_4")
	assert.Contains(t, gameID, "game_")
}

func TestCreateGameUnknownType(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]string{"game_type": "chess"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownGameType, errorCode(t, rr))
}

func TestCreateGameMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestGetStateInvalidID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidGameID, errorCode(t, rr))
}

func TestGetStateUnknownGame(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/game_AAAAAAA", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestGameLifecycle(t *testing.T) {
	ts := newTestServer(t)

	gameID := ts.createGame(t, "connect_4")

	// First join leaves the game waiting
	aliceSession := ts.joinGame(t, gameID, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var state model.GenericGameState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, model.StageWaiting, state.Stage)
	assert.Equal(t, model.GameTypeConnect4, state.Game)

	// Second join starts it
	bobSession := ts.joinGame(t, gameID, "bob")

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, model.StageInProgress, state.Stage)
	assert.Equal(t, []string{"alice", "bob"}, state.Players)
	assert.Equal(t, []string{"alice"}, state.CanMove)

	// A third player cannot join a started game
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/join", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidGameStage, errorCode(t, rr))

	// Bob cannot move out of turn
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/move", map[string]any{
		"session_id": bobSession,
		"payload":    map[string]int{"column": 0},
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPlayer, errorCode(t, rr))

	// Alice moves
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/move", map[string]any{
		"session_id": aliceSession,
		"payload":    map[string]int{"column": 3},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var moveResp response.SubmitMoveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &moveResp))
	assert.True(t, moveResp.Success)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, []string{"bob"}, state.CanMove)
}

func TestJoinValidation(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "connect_4")

	tests := []struct {
		name     string
		username string
		status   int
		code     string
	}{
		{"empty username", "", http.StatusBadRequest, apierr.CodeUsernameTooShort},
		{"too long", "a_very_long_username", http.StatusBadRequest, apierr.CodeUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/join",
				map[string]string{"username": tt.username})
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}

	ts.joinGame(t, gameID, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/join", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUsernameTaken, errorCode(t, rr))
}

func TestMoveInvalidSessionID(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "connect_4")

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/move", map[string]any{
		"session_id": "not-a-session",
		"payload":    map[string]int{"column": 0},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidSessionID, errorCode(t, rr))
}

func TestListGames(t *testing.T) {
	ts := newTestServer(t)

	connect4ID := ts.createGame(t, "connect_4")
	snakeID := ts.createGame(t, "snake")

	rr := ts.request(http.MethodGet, "/api/v1/games", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.ListGamesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Games, 2)

	// Filter by game type
	rr = ts.request(http.MethodGet, "/api/v1/games?game_type=snake", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Games, 1)
	assert.Equal(t, snakeID, resp.Games[0].GameID.String())

	// Filter by stage
	rr = ts.request(http.MethodGet, "/api/v1/games?stage=waiting&sort_order=asc&sort_key=game_type", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Games, 2)
	assert.Equal(t, connect4ID, resp.Games[0].GameID.String())
}

func TestListGamesBadQuery(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"page zero", "page=0"},
		{"page not a number", "page=x"},
		{"unknown sort key", "sort_key=username"},
		{"unknown sort order", "sort_order=backwards"},
		{"unknown stage", "stage=paused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodGet, "/api/v1/games?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestPoll(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "connect_4")

	// A zero since is always behind the current clock
	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/poll?since=0", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var poll response.PollResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &poll))
	assert.True(t, poll.Updated)
	assert.NotZero(t, poll.Clock)

	// Caught up: the poll times out unchanged
	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%s/poll?since=%d", gameID, poll.Clock), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var unchanged response.PollResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &unchanged))
	assert.False(t, unchanged.Updated)
	assert.Equal(t, poll.Clock, unchanged.Clock)
}

func TestPollSeesJoin(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "connect_4")

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/poll?since=0", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var before response.PollResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &before))

	ts.joinGame(t, gameID, "alice")

	rr = ts.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%s/poll?since=%d", gameID, before.Clock), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var after response.PollResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &after))
	assert.True(t, after.Updated)
	assert.Greater(t, after.Clock, before.Clock)
}

func TestPollBadSince(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "connect_4")

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/poll?since=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestPollUnknownGame(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/games/game_AAAAAAA/poll", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))
}

func TestSnakeGameOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.createGame(t, "snake")

	sessions := map[string]string{}
	for _, name := range []string{"ann", "ben", "cat", "dan"} {
		sessions[name] = ts.joinGame(t, gameID, name)
	}

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var state model.GenericGameState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, model.StageInProgress, state.Stage)
	assert.Equal(t, model.GameTypeSnake, state.Game)
	assert.Len(t, state.CanMove, 4)

	// Every player may move exactly once per tick
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/move", map[string]any{
		"session_id": sessions["ann"],
		"payload":    map[string]string{"direction": "up"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/move", map[string]any{
		"session_id": sessions["ann"],
		"payload":    map[string]string{"direction": "down"},
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPlayer, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Len(t, state.CanMove, 3)
	assert.NotContains(t, state.CanMove, "ann")
}
