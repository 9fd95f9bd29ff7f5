// Package snake implements a simultaneous-turn multiplayer snake engine
// behind the adapter contract. Each alive player submits one direction per
// tick; once every alive player has moved, the tick resolves at once.
package snake

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mcoot/gameroom-go/internal/adapter"
	"github.com/mcoot/gameroom-go/internal/dependencies/random"
	"github.com/mcoot/gameroom-go/internal/model"
	"github.com/mcoot/gameroom-go/internal/notify"
)

const (
	numPlayers = 4

	boardMin = -100
	boardMax = 100

	// fruitSpawnAttempts bounds the search for a free cell when spawning
	fruitSpawnAttempts = 32
)

type direction string

const (
	dirUp    direction = "up"
	dirDown  direction = "down"
	dirLeft  direction = "left"
	dirRight direction = "right"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p point) step(d direction) point {
	switch d {
	case dirUp:
		return point{p.X, p.Y + 1}
	case dirDown:
		return point{p.X, p.Y - 1}
	case dirLeft:
		return point{p.X - 1, p.Y}
	default:
		return point{p.X + 1, p.Y}
	}
}

func (p point) inBounds() bool {
	return p.X >= boardMin && p.X <= boardMax && p.Y >= boardMin && p.Y <= boardMax
}

// Adapter is a single snake game
type Adapter struct {
	gameID   model.GameID
	players  []string
	stage    model.Stage
	notifier *notify.Notifier
	rnd      random.Random

	// snakes maps alive players to their body, head first
	snakes map[string][]point
	fruits map[point]struct{}
	// pending holds the directions recorded for the current tick
	pending map[string]direction
	winners []string
}

var _ adapter.GameAdapter = (*Adapter)(nil)

type movePayload struct {
	Direction string `json:"direction"`
}

type statePayload struct {
	Players map[string][]point `json:"players"`
	Fruits  []point            `json:"fruits"`
}

// NewFactory returns a Factory producing snake adapters. Spawn positions and
// fruit placement come from rnd; notifiers use the given wait timeout.
func NewFactory(rnd random.Random, waitTimeout time.Duration) adapter.Factory {
	return func(id model.GameID) adapter.GameAdapter {
		return &Adapter{
			gameID:   id,
			stage:    model.StageWaiting,
			notifier: notify.NewWithTimeout(waitTimeout),
			rnd:      rnd,
			snakes:   make(map[string][]point),
			fruits:   make(map[point]struct{}),
			pending:  make(map[string]direction),
		}
	}
}

// Notifier returns the game's change notifier
func (a *Adapter) Notifier() *notify.Notifier {
	return a.notifier
}

// AddPlayer admits a player at a random spawn point; the fourth join starts
// the game
func (a *Adapter) AddPlayer(username string) error {
	if a.stage != model.StageWaiting {
		return fmt.Errorf("%w: %s", model.ErrInvalidGameStage, a.stage)
	}
	if len(a.players) >= numPlayers {
		return fmt.Errorf("%w: limit of %d players", model.ErrPlayerLimitExceeded, numPlayers)
	}

	a.players = append(a.players, username)
	a.snakes[username] = []point{a.randomPoint()}

	if len(a.players) == numPlayers {
		a.stage = model.StageInProgress
		a.spawnFruit()
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

// PlayMove records the player's direction for this tick; the tick resolves
// once every alive player has moved
func (a *Adapter) PlayMove(move model.GenericGameMove) error {
	if a.stage != model.StageInProgress {
		return fmt.Errorf("%w: %s", model.ErrInvalidGameStage, a.stage)
	}

	var payload movePayload
	if err := json.Unmarshal(move.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}
	dir, err := parseDirection(payload.Direction)
	if err != nil {
		return err
	}

	player := move.Player
	if _, alive := a.snakes[player]; !alive {
		return fmt.Errorf("%w: %s", model.ErrInvalidPlayer, player)
	}
	if _, moved := a.pending[player]; moved {
		return fmt.Errorf("%w: %s has already moved this tick", model.ErrInvalidPlayer, player)
	}

	a.pending[player] = dir
	if len(a.pending) == len(a.snakes) {
		a.resolveTick()
		if len(a.snakes) <= 1 {
			a.stage = model.StageEnded
			a.winners = a.alivePlayers()
		}
	}
	a.notifier.Send()
	return nil
}

// Stage reports the game's lifecycle phase
func (a *Adapter) Stage() model.Stage {
	return a.stage
}

// EncodedState returns the alive snakes and fruit positions
func (a *Adapter) EncodedState() (*model.GenericGameState, error) {
	bodies := make(map[string][]point, len(a.snakes))
	for player, body := range a.snakes {
		bodies[player] = append([]point{}, body...)
	}

	fruits := make([]point, 0, len(a.fruits))
	for f := range a.fruits {
		fruits = append(fruits, f)
	}
	sort.Slice(fruits, func(i, j int) bool {
		if fruits[i].X != fruits[j].X {
			return fruits[i].X < fruits[j].X
		}
		return fruits[i].Y < fruits[j].Y
	})

	payload, err := json.Marshal(statePayload{Players: bodies, Fruits: fruits})
	if err != nil {
		return nil, err
	}

	canMove := []string{}
	if a.stage == model.StageInProgress {
		for _, player := range a.alivePlayers() {
			if _, moved := a.pending[player]; !moved {
				canMove = append(canMove, player)
			}
		}
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
	return model.GameTypeSnake
}

// resolveTick advances every snake simultaneously: collisions are judged
// against the board as it stood before anyone moved.
func (a *Adapter) resolveTick() {
	occupied := make(map[point]struct{})
	for _, body := range a.snakes {
		for _, p := range body {
			occupied[p] = struct{}{}
		}
	}

	for _, player := range a.alivePlayers() {
		dir := a.pending[player]
		body := a.snakes[player]
		head := body[0].step(dir)

		if !head.inBounds() {
			delete(a.snakes, player)
			continue
		}
		if _, hit := occupied[head]; hit {
			delete(a.snakes, player)
			continue
		}

		body = append([]point{head}, body...)
		if _, ate := a.fruits[head]; ate {
			delete(a.fruits, head)
			a.spawnFruit()
		} else {
			body = body[:len(body)-1]
		}
		a.snakes[player] = body
	}

	a.pending = make(map[string]direction)
}

// alivePlayers returns alive players in a stable order; map iteration order
// must not leak into tick resolution.
func (a *Adapter) alivePlayers() []string {
	players := make([]string, 0, len(a.snakes))
	for player := range a.snakes {
		players = append(players, player)
	}
	sort.Strings(players)
	return players
}

func (a *Adapter) randomPoint() point {
	span := boardMax - boardMin + 1
	return point{
		X: boardMin + a.rnd.Intn(span),
		Y: boardMin + a.rnd.Intn(span),
	}
}

// spawnFruit places a fruit on a free cell, giving up after a bounded number
// of attempts on a crowded board.
func (a *Adapter) spawnFruit() {
	occupied := make(map[point]struct{})
	for _, body := range a.snakes {
		for _, p := range body {
			occupied[p] = struct{}{}
		}
	}

	for i := 0; i < fruitSpawnAttempts; i++ {
		candidate := a.randomPoint()
		if _, taken := occupied[candidate]; taken {
			continue
		}
		if _, taken := a.fruits[candidate]; taken {
			continue
		}
		a.fruits[candidate] = struct{}{}
		return
	}
}

func parseDirection(s string) (direction, error) {
	switch direction(s) {
	case dirUp, dirDown, dirLeft, dirRight:
		return direction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", model.ErrInvalidMove, s)
	}
}
