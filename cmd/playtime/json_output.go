package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// gameJSON is the CLI's JSON view of a catalog entry, with hours alongside
// the raw seconds.
type gameJSON struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	MainSeconds          int64   `json:"main_seconds"`
	PlusSeconds          int64   `json:"main_extra_seconds"`
	CompletionistSeconds int64   `json:"completionist_seconds"`
	AllStylesSeconds     int64   `json:"all_styles_seconds"`
	MainHours            float64 `json:"main_hours"`
	PlusHours            float64 `json:"main_extra_hours"`
	CompletionistHours   float64 `json:"completionist_hours"`
	AllStylesHours       float64 `json:"all_styles_hours"`
	Popularity           int64   `json:"popularity"`
}
