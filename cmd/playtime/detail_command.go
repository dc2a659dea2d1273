package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type detailJSON struct {
	gameJSON
	SteamAppID int64 `json:"steam_app_id"`
}

func newDetailCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "detail <id>",
		Short: "Fetch a game's detail page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid game id %q", args[0])
			}
			a, err := ctx.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.client.FetchDetail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("fetch detail %d: %w", id, err)
			}
			if jsonOutput {
				return writeJSON(cmd, detailJSON{gameJSON: toGameJSON(detail.Game), SteamAppID: detail.SteamAppID})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (id %d)\n", detail.Name, detail.ID)
			steam := "none"
			if detail.SteamAppID > 0 {
				steam = strconv.FormatInt(detail.SteamAppID, 10)
			}
			fmt.Fprintf(out, "  Steam app:     %s\n", steam)
			fmt.Fprintf(out, "  Main:          %s\n", formatDuration(detail.MainSeconds))
			fmt.Fprintf(out, "  Main+Extra:    %s\n", formatDuration(detail.PlusSeconds))
			fmt.Fprintf(out, "  Completionist: %s\n", formatDuration(detail.CompletionistSeconds))
			fmt.Fprintf(out, "  All Styles:    %s\n", formatDuration(detail.AllStylesSeconds))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
