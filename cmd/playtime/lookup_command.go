package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type lookupJSON struct {
	Title     string    `json:"title"`
	Found     bool      `json:"found"`
	Outcome   string    `json:"outcome"`
	RequestID string    `json:"request_id"`
	Game      *gameJSON `json:"game,omitempty"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var steamAppID int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <title>",
		Short: "Find completion times for a game title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			a, err := ctx.openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			result, found := a.lookup.Lookup(cmd.Context(), title, steamAppID)
			if jsonOutput {
				payload := lookupJSON{
					Title:     title,
					Found:     found,
					Outcome:   string(result.Outcome),
					RequestID: result.RequestID,
				}
				if found {
					game := toGameJSON(result.Game)
					payload.Game = &game
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No match for %q\n", title)
				return nil
			}
			game := result.Game
			fmt.Fprintf(out, "%s (id %d)\n", game.Name, game.ID)
			fmt.Fprintf(out, "  Main:          %s\n", formatDuration(game.MainSeconds))
			fmt.Fprintf(out, "  Main+Extra:    %s\n", formatDuration(game.PlusSeconds))
			fmt.Fprintf(out, "  Completionist: %s\n", formatDuration(game.CompletionistSeconds))
			fmt.Fprintf(out, "  All Styles:    %s\n", formatDuration(game.AllStylesSeconds))
			return nil
		},
	}

	cmd.Flags().Int64Var(&steamAppID, "steam-id", 0, "Steam app id used to confirm the match")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
