package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"playtime/internal/hltb"
	"playtime/internal/logging"
)

// DefaultConfirmLimit caps detail lookups per resolution.
const DefaultConfirmLimit = 3

// Searcher runs a catalog search.
type Searcher interface {
	Search(ctx context.Context, query string, page int, modifier string) ([]hltb.Game, error)
}

// DetailFetcher loads a catalog entry's detail page.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, gameID int64) (hltb.Detail, error)
}

// Resolver turns a title and optional Steam app id into one catalog entry.
type Resolver struct {
	searcher     Searcher
	details      DetailFetcher
	confirmLimit int
	logger       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfirmLimit overrides how many top candidates may be confirmed.
func WithConfirmLimit(limit int) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.confirmLimit = limit
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "matching")
	}
}

// NewResolver builds a Resolver. details may be nil, which disables Steam
// confirmation.
func NewResolver(searcher Searcher, details DetailFetcher, opts ...Option) *Resolver {
	r := &Resolver{
		searcher:     searcher,
		details:      details,
		confirmLimit: DefaultConfirmLimit,
		logger:       logging.NewComponentLogger(nil, "matching"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the best catalog entry for title. A steamAppID of zero or
// less means none was supplied. Search failures are returned as is; an empty
// result page wraps hltb.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, title string, steamAppID int64) (hltb.Game, error) {
	if r == nil || r.searcher == nil {
		return hltb.Game{}, errors.New("matching: resolver has no searcher")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return hltb.Game{}, fmt.Errorf("%w: empty title", hltb.ErrNotFound)
	}
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldTitle, title))

	games, err := r.searcher.Search(ctx, title, 1, "")
	if err != nil {
		return hltb.Game{}, err
	}
	if len(games) == 0 {
		logger.Info("no search results", logging.Args(logging.DecisionAttrs("match", "none", "empty result page")...)...)
		return hltb.Game{}, fmt.Errorf("%w: no results for %q", hltb.ErrNotFound, title)
	}

	if game, ok := ExactMatch(title, games); ok {
		logger.Info("exact title match",
			logging.Args(append(logging.DecisionAttrs("match", "exact", "normalized names equal"),
				logging.GameID(game.ID),
				logging.String("name", game.Name),
			)...)...)
		return game, nil
	}

	candidates := Rank(title, games)
	if steamAppID > 0 && r.details != nil {
		if game, ok := r.confirm(ctx, logger, candidates, steamAppID); ok {
			return game, nil
		}
	}

	best := candidates[0]
	logger.Info("closest title match",
		logging.Args(append(logging.DecisionAttrs("match", "ranked", "lowest edit distance"),
			logging.GameID(best.Game.ID),
			logging.String("name", best.Game.Name),
			logging.Int("distance", best.Distance),
			logging.Int64("popularity", best.Popularity),
			logging.Int("candidates", len(candidates)),
		)...)...)
	return best.Game, nil
}

// confirm checks up to confirmLimit top candidates for a matching Steam app
// id. Detail failures are logged and skipped.
func (r *Resolver) confirm(ctx context.Context, logger *slog.Logger, candidates []Candidate, steamAppID int64) (hltb.Game, bool) {
	limit := min(r.confirmLimit, len(candidates))
	for _, candidate := range candidates[:limit] {
		if ctx.Err() != nil {
			return hltb.Game{}, false
		}
		detail, err := r.details.FetchDetail(ctx, candidate.Game.ID)
		if err != nil {
			logging.WarnWithContext(logger, "detail lookup failed during confirmation", "match_confirm_failed",
				logging.GameID(candidate.Game.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "candidate skipped"),
			)
			continue
		}
		if detail.SteamAppID == steamAppID {
			logger.Info("steam app id confirmed",
				logging.Args(append(logging.DecisionAttrs("match", "confirmed", "profile_steam matches"),
					logging.GameID(candidate.Game.ID),
					logging.SteamAppID(steamAppID),
				)...)...)
			return candidate.Game, true
		}
	}
	logger.Debug("no candidate confirmed by steam app id",
		logging.SteamAppID(steamAppID),
		logging.Int("checked", limit),
	)
	return hltb.Game{}, false
}

// SearchBestMatch is Resolve with every failure collapsed into absence.
// Failures are logged.
func (r *Resolver) SearchBestMatch(ctx context.Context, title string, steamAppID int64) (hltb.Game, bool) {
	game, err := r.Resolve(ctx, title, steamAppID)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, hltb.ErrNotFound) {
			level = slog.LevelInfo
		}
		logging.WithContext(ctx, r.logger).Log(ctx, level, "no match",
			logging.Args(
				logging.String(logging.FieldTitle, title),
				logging.SteamAppID(steamAppID),
				logging.Error(err),
			)...)
		return hltb.Game{}, false
	}
	return game, true
}
