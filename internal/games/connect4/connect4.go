// Package connect4 implements the Connect Four rule engine behind the
// adapter contract: two players, a 7x6 board of columns filled bottom-up,
// four in a row wins.
package connect4

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
)

const (
	numPlayers = 2
	numCols    = 7
	numRows    = 6
	winLength  = 4
)

// token is a disc colour. Its integer value doubles as the index of the
// owning player in the join-order slice.
type token int

const (
	tokenRed token = iota
	tokenBlue
)

func (t token) other() token {
	if t == tokenRed {
		return tokenBlue
	}
	return tokenRed
}

// Adapter is a single Connect Four game
type Adapter struct {
	gameID   model.GameID
	players  []string
	stage    model.Stage
	notifier *notify.Notifier
	turn     token
	// board holds one slice per column, bottom-up, variable length
	board   [][]token
	winners []string
}

var _ adapter.GameAdapter = (*Adapter)(nil)

type movePayload struct {
	Column *int `json:"column"`
}

type statePayload struct {
	Cells [][]string `json:"cells"`
}

// NewFactory returns a Factory producing Connect Four adapters whose
// notifiers use the given long-poll wait timeout.
func NewFactory(waitTimeout time.Duration) adapter.Factory {
	return func(id model.GameID) adapter.GameAdapter {
		return &Adapter{
			gameID:   id,
			stage:    model.StageWaiting,
			notifier: notify.NewWithTimeout(waitTimeout),
			turn:     tokenRed,
			board:    make([][]token, numCols),
		}
	}
}

// Notifier returns the game's change notifier
func (a *Adapter) Notifier() *notify.Notifier {
	return a.notifier
}

// AddPlayer admits a player; the second join starts the game
func (a *Adapter) AddPlayer(username string) error {
	if a.stage != model.StageWaiting {
		return fmt.Errorf("%w: %s", model.ErrInvalidGameStage, a.stage)
	}
	if len(a.players) >= numPlayers {
		return fmt.Errorf("%w: limit of %d players", model.ErrPlayerLimitExceeded, numPlayers)
	}

	a.players = append(a.players, username)
	if len(a.players) == numPlayers {
		a.stage = model.StageInProgress
	}
	a.notifier.Send()
	return nil
}

// HasPlayer reports whether the username has joined this game
func (a *Adapter) HasPlayer(username string) bool {
	for _, p := range a.players {
		if p == username {
			return true
		}
	}
	return false
}

// PlayMove drops a disc into the requested column
func (a *Adapter) PlayMove(move model.GenericGameMove) error {
	if a.stage != model.StageInProgress {
		return fmt.Errorf("%w: %s", model.ErrInvalidGameStage, a.stage)
	}

	var payload movePayload
	if err := json.Unmarshal(move.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}
	if payload.Column == nil {
		return fmt.Errorf("%w: missing column", model.ErrInvalidMove)
	}

	if move.Player != a.currentPlayer() {
		return fmt.Errorf("%w: %s", model.ErrInvalidPlayer, move.Player)
	}

	column := *payload.Column
	if err := a.drop(column); err != nil {
		return err
	}

	won := a.isWinningMove(column)
	if won {
		a.winners = append(a.winners, a.currentPlayer())
	}
	if won || a.isDraw() {
		a.stage = model.StageEnded
	} else {
		a.turn = a.turn.other()
	}
	a.notifier.Send()
	return nil
}

// Stage reports the game's lifecycle phase
func (a *Adapter) Stage() model.Stage {
	return a.stage
}

// EncodedState returns the board with discs rendered as player usernames
func (a *Adapter) EncodedState() (*model.GenericGameState, error) {
	cells := make([][]string, numCols)
	for col, discs := range a.board {
		cells[col] = make([]string, len(discs))
		for row, t := range discs {
			cells[col][row] = a.players[int(t)]
		}
	}

	payload, err := json.Marshal(statePayload{Cells: cells})
	if err != nil {
		return nil, err
	}

	canMove := []string{}
	if a.stage == model.StageInProgress {
		canMove = []string{a.currentPlayer()}
	}

	return &model.GenericGameState{
		Players: append([]string{}, a.players...),
		CanMove: canMove,
		Winners: append([]string{}, a.winners...),
		Stage:   a.stage,
		Payload: payload,
	}, nil
}

// Type identifies the game kind
func (a *Adapter) Type() model.GameType {
	return model.GameTypeConnect4
}

// currentPlayer is only meaningful once both players have joined; callers
// check the stage first.
func (a *Adapter) currentPlayer() string {
	if int(a.turn) >= len(a.players) {
		return ""
	}
	return a.players[int(a.turn)]
}

func (a *Adapter) drop(column int) error {
	if column < 0 || column >= numCols {
		return fmt.Errorf("%w: column %d does not exist", model.ErrInvalidMove, column)
	}
	if len(a.board[column]) >= numRows {
		return fmt.Errorf("%w: column %d is already full", model.ErrInvalidMove, column)
	}
	a.board[column] = append(a.board[column], a.turn)
	return nil
}

func (a *Adapter) cellAt(col, row int) (token, bool) {
	if col < 0 || col >= numCols || row < 0 || row >= len(a.board[col]) {
		return 0, false
	}
	return a.board[col][row], true
}

// isWinningMove checks whether the disc just dropped in column completes a
// run of four along any of the four axes through it.
func (a *Adapter) isWinningMove(column int) bool {
	row := len(a.board[column]) - 1
	axes := [][2]int{
		{0, 1}, // vertical
		{1, 0}, // horizontal
		{1, 1}, // diagonal up-right
		{1, -1}, // diagonal down-right
	}
	for _, axis := range axes {
		run := 1 +
			a.runLength(column, row, axis[0], axis[1]) +
			a.runLength(column, row, -axis[0], -axis[1])
		if run >= winLength {
			return true
		}
	}
	return false
}

// runLength counts consecutive discs of the mover's colour stepping away
// from (col, row), excluding the starting cell.
func (a *Adapter) runLength(col, row, dCol, dRow int) int {
	n := 0
	for {
		col += dCol
		row += dRow
		t, ok := a.cellAt(col, row)
		if !ok || t != a.turn {
			return n
		}
		n++
	}
}

func (a *Adapter) isDraw() bool {
	for _, column := range a.board {
		if len(column) < numRows {
			return false
		}
	}
	return true
}
