package hltb

import "time"

// Game is one entry of a search result page. Durations are in seconds; a
// zero duration means the site has no submissions for that category.
type Game struct {
	ID                   int64  `json:"game_id"`
	Name                 string `json:"game_name"`
	MainSeconds          int64  `json:"comp_main"`
	PlusSeconds          int64  `json:"comp_plus"`
	CompletionistSeconds int64  `json:"comp_100"`
	AllStylesSeconds     int64  `json:"comp_all"`
	Popularity           int64  `json:"comp_all_count"`
}

// Detail is the per-game page payload. It is only used to confirm identity
// through the linked Steam app id.
type Detail struct {
	Game
	// SteamAppID is the profile_steam value; 0 when the page links no Steam app.
	SteamAppID int64 `json:"profile_steam"`
}

// Token is an issued x-auth-token and the instant it stops being handed out.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token may still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}
