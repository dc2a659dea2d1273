package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type discoverJSON struct {
	SearchURL string `json:"search_url"`
	Fallback  bool   `json:"fallback"`
	BuildID   string `json:"build_id,omitempty"`
	BuildErr  string `json:"build_id_error,omitempty"`
	Token     bool   `json:"token_issued"`
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show the discovered search endpoint, build id and token state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			var report discoverJSON
			report.SearchURL = a.client.SearchURL(cmd.Context())
			report.Fallback = report.SearchURL == a.client.FallbackSearchURL()
			if buildID, err := a.client.BuildID(cmd.Context()); err != nil {
				report.BuildErr = err.Error()
			} else {
				report.BuildID = buildID
			}
			if _, err := a.client.Token(cmd.Context(), false); err == nil {
				report.Token = true
			} else {
				a.logger.Debug("token request failed during discover", "error", err)
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Search endpoint: %s\n", report.SearchURL)
			fmt.Fprintf(out, "Fallback used:   %s\n", yesNo(report.Fallback))
			if report.BuildID != "" {
				fmt.Fprintf(out, "Build id:        %s\n", report.BuildID)
			} else {
				fmt.Fprintf(out, "Build id:        unavailable (%s)\n", report.BuildErr)
			}
			fmt.Fprintf(out, "Token issued:    %s\n", yesNo(report.Token))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
