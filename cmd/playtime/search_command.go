package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int
	var modifier string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a raw catalog search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			a, err := ctx.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			games, err := a.client.Search(cmd.Context(), query, page, modifier)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			if jsonOutput {
				items := make([]gameJSON, 0, len(games))
				for _, game := range games {
					items = append(items, toGameJSON(game))
				}
				return writeJSON(cmd, items)
			}
			if len(games) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}
			rows := make([][]string, 0, len(games))
			for _, game := range games {
				rows = append(rows, gameRow(game))
			}
			writeRows(cmd, gameHeaders, rows, gameAligns)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page (1-based)")
	cmd.Flags().StringVar(&modifier, "modifier", "", "Search modifier, e.g. hide_dlc")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
