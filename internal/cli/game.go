package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <game_type>",
		Short: "Create a new game (connect_4 or snake)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"game_type": args[0]}
			var result CreateResult

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		page      int
		sortKey   string
		sortOrder string
		gameType  string
		players   int
		stage     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and search active games",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("page", strconv.Itoa(page))
			if sortKey != "" {
				query.Set("sort_key", sortKey)
			}
			if sortOrder != "" {
				query.Set("sort_order", sortOrder)
			}
			if gameType != "" {
				query.Set("game_type", gameType)
			}
			if cmd.Flags().Changed("players") {
				query.Set("players", strconv.Itoa(players))
			}
			if stage != "" {
				query.Set("stage", stage)
			}

			var result GameList
			if err := client.Get("/api/v1/games?"+query.Encode(), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key: game_type, players, stage, last_updated")
	cmd.Flags().StringVar(&sortOrder, "order", "", "Sort order: asc, desc")
	cmd.Flags().StringVar(&gameType, "type", "", "Filter by game type")
	cmd.Flags().IntVar(&players, "players", 0, "Filter by player count")
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by stage: waiting, in_progress, ended")

	return cmd
}

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game_id> <username>",
		Short: "Join a game as the given username",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			req := map[string]string{"username": args[1]}
			var result JoinResult

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/join", gameID), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <game_id>",
		Short: "Get current game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <game_id> <session_id> <payload>",
		Short: "Submit a move as a JSON payload",
		Long: `Submit a move for your session. The payload is game-specific JSON, for
example '{"column": 3}' for connect_4 or '{"direction": "up"}' for snake.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			payload := json.RawMessage(args[2])
			if !json.Valid(payload) {
				return fmt.Errorf("payload must be valid JSON")
			}

			req := map[string]any{
				"session_id": args[1],
				"payload":    payload,
			}

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/move", gameID), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Move submitted")
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <game_id>",
		Short: "Watch a game, printing state whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			out := NewOutput(cfg.Output)

			// Print the initial state, then long-poll for changes
			var state GameState
			if err := client.Get(fmt.Sprintf("/api/v1/games/%s", gameID), &state); err != nil {
				return err
			}
			out.Print(state)

			var since uint64
			for {
				var poll PollResult
				path := fmt.Sprintf("/api/v1/games/%s/poll?since=%d", gameID, since)
				if err := client.Get(path, &poll); err != nil {
					return err
				}
				since = poll.Clock

				if !poll.Updated {
					continue
				}

				if err := client.Get(fmt.Sprintf("/api/v1/games/%s", gameID), &state); err != nil {
					return err
				}
				out.Print(state)

				if state.Stage == "ended" {
					return nil
				}
			}
		},
	}
}
