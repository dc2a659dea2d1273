package main

import (
	"fmt"
	"math"
	"strconv"

	"playtime/internal/hltb"
)

// formatDuration renders seconds as "12h 05m"; zero means no submissions.
func formatDuration(seconds int64) string {
	if seconds <= 0 {
		return "--"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
}

func hours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*10) / 10
}

func toGameJSON(game hltb.Game) gameJSON {
	return gameJSON{
		ID:                   game.ID,
		Name:                 game.Name,
		MainSeconds:          game.MainSeconds,
		PlusSeconds:          game.PlusSeconds,
		CompletionistSeconds: game.CompletionistSeconds,
		AllStylesSeconds:     game.AllStylesSeconds,
		MainHours:            hours(game.MainSeconds),
		PlusHours:            hours(game.PlusSeconds),
		CompletionistHours:   hours(game.CompletionistSeconds),
		AllStylesHours:       hours(game.AllStylesSeconds),
		Popularity:           game.Popularity,
	}
}

func gameRow(game hltb.Game) []string {
	return []string{
		strconv.FormatInt(game.ID, 10),
		game.Name,
		formatDuration(game.MainSeconds),
		formatDuration(game.PlusSeconds),
		formatDuration(game.CompletionistSeconds),
		formatDuration(game.AllStylesSeconds),
		strconv.FormatInt(game.Popularity, 10),
	}
}

var gameHeaders = []string{"ID", "Name", "Main", "Main+Extra", "Completionist", "All Styles", "Popularity"}

var gameAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
