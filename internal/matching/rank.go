package matching

import (
	"sort"

	"playtime/internal/hltb"
	"playtime/internal/textutil"
)

// Candidate is a search result with its ranking keys.
type Candidate struct {
	Game       hltb.Game
	Distance   int
	Popularity int64
}

// Less orders candidates by ascending distance, then descending popularity.
func Less(a, b Candidate) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Popularity > b.Popularity
}

// Rank scores games against title and returns them best first. Candidates
// that tie on both keys keep their search order.
func Rank(title string, games []hltb.Game) []Candidate {
	query := textutil.NormalizeTitle(title)
	candidates := make([]Candidate, 0, len(games))
	for _, game := range games {
		candidates = append(candidates, Candidate{
			Game:       game,
			Distance:   textutil.Distance(query, textutil.NormalizeTitle(game.Name)),
			Popularity: game.Popularity,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(candidates[i], candidates[j])
	})
	return candidates
}

// ExactMatch returns the first game whose normalized name equals title's.
func ExactMatch(title string, games []hltb.Game) (hltb.Game, bool) {
	query := textutil.NormalizeTitle(title)
	for _, game := range games {
		if textutil.NormalizeTitle(game.Name) == query {
			return game, true
		}
	}
	return hltb.Game{}, false
}
