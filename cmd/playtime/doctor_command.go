package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"playtime/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the result cache and the catalog site",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			var catalog preflight.Catalog
			if !offline {
				catalog = a.client
			}
			results := preflight.RunAll(cmd.Context(), a.cfg, catalog)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, r := range results {
					mark := "ok  "
					if !r.Passed {
						mark = "FAIL"
					}
					fmt.Fprintf(out, "[%s] %-16s %s\n", mark, r.Name, r.Detail)
				}
			}
			if !preflight.Passed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip checks that contact the catalog site")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
