package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/api/handler"
	"github.com/mcoot/gameroom-go/internal/api/middleware"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	Factories      map[model.GameType]adapter.Factory
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Factories)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Game routes
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}", gameHandler.GetState).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/join", gameHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/move", gameHandler.Move).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/poll", gameHandler.Poll).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
