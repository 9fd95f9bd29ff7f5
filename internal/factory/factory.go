package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/dependencies/clock"
	"github.com/mcoot/gameroom-go/internal/dependencies/random"
	"github.com/mcoot/gameroom-go/internal/games/connect4"
	"github.com/mcoot/gameroom-go/internal/games/snake"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
	"github.com/mcoot/gameroom-go/internal/services/game"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	GameController *game.Controller

	// Factories maps each supported game type to its adapter constructor
	Factories map[model.GameType]adapter.Factory
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// IdleTTL is how long a game may go without updates before eviction
	// If zero, defaults to game.DefaultIdleTTL
	IdleTTL time.Duration
	// PollTimeout is how long a long-poll waits before returning unchanged
	// If zero, defaults to notify.DefaultWaitTimeout
	PollTimeout time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) *App {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = notify.DefaultWaitTimeout
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(clk, rnd, cfg.IdleTTL, pollTimeout, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(clk clock.Clock, rnd random.Random, idleTTL, pollTimeout time.Duration, logger *slog.Logger) *App {
	gameController := game.NewController(clk, rnd, idleTTL, logger)

	factories := map[model.GameType]adapter.Factory{
		model.GameTypeConnect4: connect4.NewFactory(pollTimeout),
		model.GameTypeSnake:    snake.NewFactory(rnd, pollTimeout),
	}

	return &App{
		Clock:          clk,
		Random:         rnd,
		GameController: gameController,
		Factories:      factories,
	}
}
