package resultcache

import (
	"strconv"
	"time"

	"playtime/internal/hltb"
	"playtime/internal/textutil"
)

// Freshness classifies a cached entry against the store's TTLs.
type Freshness int

const (
	Expired Freshness = iota
	Stale
	Fresh
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Entry is one cached resolution. Game is the zero value when Found is false.
type Entry struct {
	ID         int64
	Key        string
	Title      string
	SteamAppID int64
	Found      bool
	Game       hltb.Game
	StoredAt   time.Time
}

// Policy holds the freshness windows.
type Policy struct {
	FreshTTL    time.Duration
	StaleTTL    time.Duration
	NegativeTTL time.Duration
}

// Classify reports how fresh an entry stored at storedAt is at now.
func (p Policy) Classify(found bool, storedAt, now time.Time) Freshness {
	age := now.Sub(storedAt)
	if !found {
		if age < p.NegativeTTL {
			return Fresh
		}
		return Expired
	}
	switch {
	case age < p.FreshTTL:
		return Fresh
	case age < p.StaleTTL:
		return Stale
	default:
		return Expired
	}
}

// Key is the cache key for a lookup. Titles that normalize equally share a
// key; non-positive app ids are treated as absent.
func Key(title string, steamAppID int64) string {
	if steamAppID < 0 {
		steamAppID = 0
	}
	return textutil.NormalizeTitle(title) + "|" + strconv.FormatInt(steamAppID, 10)
}
