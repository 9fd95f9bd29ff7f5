package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CreateResult:
		o.printCreateResult(v)
	case JoinResult:
		o.printJoinResult(v)
	case GameList:
		o.printGameList(v)
	case GameState:
		o.printGameState(v)
	case PollResult:
		o.printPollResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CreateResult response type (matches API)
type CreateResult struct {
	GameID string `json:"game_id"`
}

// JoinResult response type
type JoinResult struct {
	SessionID string `json:"session_id"`
}

// GameList response type
type GameList struct {
	Games []GameSummary `json:"games"`
}

// GameSummary response type
type GameSummary struct {
	GameID      string   `json:"game_id"`
	GameType    string   `json:"game_type"`
	Players     []string `json:"players"`
	Stage       string   `json:"stage"`
	LastUpdated string   `json:"last_updated"`
}

// GameState response type
type GameState struct {
	Game    string          `json:"game"`
	Players []string        `json:"players"`
	CanMove []string        `json:"can_move"`
	Winners []string        `json:"winners"`
	Stage   string          `json:"stage"`
	Payload json.RawMessage `json:"payload"`
}

// PollResult response type
type PollResult struct {
	Clock   uint64 `json:"clock"`
	Updated bool   `json:"updated"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printCreateResult(c CreateResult) {
	fmt.Printf("Game created: %s\n", c.GameID)
}

func (o *Output) printJoinResult(j JoinResult) {
	fmt.Printf("Joined. Session: %s\n", j.SessionID)
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No games found")
		return
	}

	for _, g := range l.Games {
		fmt.Printf("%s  %-10s %-12s %s\n", g.GameID, g.GameType, g.Stage, strings.Join(g.Players, ", "))
	}
}

func (o *Output) printGameState(g GameState) {
	fmt.Printf("Game: %s\n", g.Game)
	fmt.Printf("Stage: %s\n", g.Stage)
	fmt.Printf("Players: %s\n", strings.Join(g.Players, ", "))

	if len(g.CanMove) > 0 {
		fmt.Printf("Can Move: %s\n", strings.Join(g.CanMove, ", "))
	}
	if len(g.Winners) > 0 {
		fmt.Printf("Winners: %s\n", strings.Join(g.Winners, ", "))
	}

	if len(g.Payload) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, g.Payload, "", "  "); err == nil {
			fmt.Printf("\nState:\n%s\n", pretty.String())
		}
	}
}

func (o *Output) printPollResult(p PollResult) {
	if p.Updated {
		fmt.Printf("Updated (clock %d)\n", p.Clock)
	} else {
		fmt.Printf("No change (clock %d)\n", p.Clock)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
