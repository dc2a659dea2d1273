package hltb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"playtime/internal/logging"
)

// DetailFetcher loads per-game pages from the Next.js data route.
type DetailFetcher struct {
	baseURL   string
	userAgent string
	transport Transport
	discovery *Discovery
	logger    *slog.Logger
}

// NewDetailFetcher builds a DetailFetcher.
func NewDetailFetcher(baseURL, userAgent string, t Transport, discovery *Discovery, logger *slog.Logger) *DetailFetcher {
	return &DetailFetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		transport: t,
		discovery: discovery,
		logger:    logging.NewComponentLogger(logger, "hltb-detail"),
	}
}

// FetchDetail returns the detail record for gameID. Without a build id no
// request is made and the error wraps ErrNotFound. A 404 wraps both
// ErrTransport and ErrNotFound.
func (f *DetailFetcher) FetchDetail(ctx context.Context, gameID int64) (Detail, error) {
	if gameID <= 0 {
		return Detail{}, errors.New("game id must be positive")
	}
	buildID, err := f.discovery.BuildID(ctx)
	if err != nil {
		return Detail{}, err
	}

	endpoint := fmt.Sprintf("%s/_next/data/%s/game/%s.json", f.baseURL, buildID, strconv.FormatInt(gameID, 10))
	resp, err := f.transport.Get(ctx, endpoint, browserHeaders(f.baseURL, f.userAgent))
	if err != nil {
		return Detail{}, wrap(ErrTransport, "detail", "request failed", err)
	}
	if resp.Status == http.StatusNotFound {
		return Detail{}, fmt.Errorf("%w: %w", ErrNotFound, statusError("detail", resp.Status))
	}
	if !resp.OK() {
		return Detail{}, statusError("detail", resp.Status)
	}

	detail, err := decodeDetailResponse(resp.Body)
	if err != nil {
		return Detail{}, wrap(ErrSchema, "detail", "response rejected", err)
	}
	logging.WithContext(ctx, f.logger).Debug("detail fetched",
		logging.GameID(detail.ID),
		logging.SteamAppID(detail.SteamAppID),
	)
	return detail, nil
}

func decodeDetailResponse(body []byte) (Detail, error) {
	var envelope struct {
		PageProps struct {
			Game struct {
				Data struct {
					Game json.RawMessage `json:"game"`
				} `json:"data"`
			} `json:"game"`
		} `json:"pageProps"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Detail{}, fmt.Errorf("decode envelope: %w", err)
	}
	items, err := array(envelope.PageProps.Game.Data.Game)
	if err != nil {
		return Detail{}, fmt.Errorf("pageProps.game.data.game: %w", err)
	}
	if len(items) != 1 {
		return Detail{}, fmt.Errorf("pageProps.game.data.game: expected 1 element, got %d", len(items))
	}
	rec, err := decodeRecord(items[0])
	if err != nil {
		return Detail{}, err
	}

	var detail Detail
	fields := []struct {
		key  string
		dest *int64
		read func(string) (int64, error)
	}{
		{"game_id", &detail.ID, rec.integer},
		{"profile_steam", &detail.SteamAppID, rec.integer},
		{"comp_main", &detail.MainSeconds, rec.seconds},
		{"comp_plus", &detail.PlusSeconds, rec.seconds},
		{"comp_100", &detail.CompletionistSeconds, rec.seconds},
		{"comp_all", &detail.AllStylesSeconds, rec.seconds},
	}
	for _, field := range fields {
		value, err := field.read(field.key)
		if err != nil {
			return Detail{}, err
		}
		*field.dest = value
	}
	if detail.Name, err = rec.string("game_name"); err != nil {
		return Detail{}, err
	}
	// Detail pages don't always carry the popularity count.
	if rec.present("comp_all_count") {
		if detail.Popularity, err = rec.integer("comp_all_count"); err != nil {
			return Detail{}, err
		}
	}
	return detail, nil
}
