package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/api/request"
	"github.com/mcoot/gameroom-go/internal/api/response"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/services/game"
	"github.com/mcoot/gameroom-go/internal/services/search"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	controller *game.Controller
	factories  map[model.GameType]adapter.Factory
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller *game.Controller, factories map[model.GameType]adapter.Factory) *GameHandler {
	return &GameHandler{
		controller: controller,
		factories:  factories,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	gameType, err := model.ParseGameType(req.GameType)
	if err != nil {
		WriteError(w, err)
		return
	}
	factory, ok := h.factories[gameType]
	if !ok {
		WriteError(w, model.ErrUnknownGameType)
		return
	}

	gameID, err := h.controller.CreateGame(r.Context(), factory)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateGameResponse{GameID: gameID.String()})
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseSearchOptions(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	games, err := h.controller.ListGames(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ListGamesResponse{Games: games})
}

// Join handles POST /api/v1/games/{game_id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, err := model.ParseGameID(mux.Vars(r)["game_id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sessionID, err := h.controller.JoinGame(r.Context(), gameID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.JoinGameResponse{SessionID: sessionID.String()})
}

// GetState handles GET /api/v1/games/{game_id}
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	gameID, err := model.ParseGameID(mux.Vars(r)["game_id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.controller.GetState(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, state)
}

// Move handles POST /api/v1/games/{game_id}/move
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	gameID, err := model.ParseGameID(mux.Vars(r)["game_id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SubmitMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sessionID, err := model.ParseSessionID(req.SessionID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.controller.SubmitMove(r.Context(), gameID, sessionID, req.Payload); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitMoveResponse{Success: true})
}

// Poll handles GET /api/v1/games/{game_id}/poll
//
// Long-poll: blocks until the game changes past the client's "since" clock
// value or the wait timeout elapses. A timeout is a successful "unchanged"
// response, not an error; clients simply re-poll with the returned clock.
func (h *GameHandler) Poll(w http.ResponseWriter, r *http.Request) {
	gameID, err := model.ParseGameID(mux.Vars(r)["game_id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			WriteError(w, NewInvalidRequestError("since must be a non-negative integer"))
			return
		}
	}

	sub, err := h.controller.Subscribe(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer sub.Close()

	clk, err := sub.Wait(r.Context(), since)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client went away; nothing useful left to write
			return
		}
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PollResponse{Clock: clk, Updated: clk > since})
}

// parseSearchOptions builds search options from query parameters, starting
// from the defaults (first page, most recently updated first).
func parseSearchOptions(r *http.Request) (search.Options, error) {
	opts := search.DefaultOptions()
	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, NewInvalidRequestError("page must be an integer")
		}
		opts.Page = page
	}
	if raw := query.Get("sort_key"); raw != "" {
		key, err := search.ParseSortKey(raw)
		if err != nil {
			return opts, NewInvalidRequestError(err.Error())
		}
		opts.SortKey = key
	}
	if raw := query.Get("sort_order"); raw != "" {
		order, err := search.ParseSortOrder(raw)
		if err != nil {
			return opts, NewInvalidRequestError(err.Error())
		}
		opts.SortOrder = order
	}
	if raw := query.Get("game_type"); raw != "" {
		gameType, err := model.ParseGameType(raw)
		if err != nil {
			return opts, err
		}
		opts.GameType = &gameType
	}
	if raw := query.Get("players"); raw != "" {
		players, err := strconv.Atoi(raw)
		if err != nil {
			return opts, NewInvalidRequestError("players must be an integer")
		}
		opts.Players = &players
	}
	if raw := query.Get("stage"); raw != "" {
		stage, err := model.ParseStage(raw)
		if err != nil {
			return opts, NewInvalidRequestError(err.Error())
		}
		opts.Stage = &stage
	}

	return opts, nil
}
