package hltb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"playtime/internal/logging"
)

// DefaultPageSize is the number of results requested per search page.
const DefaultPageSize = 20

// SearchClient posts search queries to the discovered endpoint.
type SearchClient struct {
	baseURL   string
	userAgent string
	transport Transport
	discovery *Discovery
	tokens    *TokenManager
	pageSize  int
	logger    *slog.Logger
}

// NewSearchClient builds a SearchClient.
func NewSearchClient(baseURL, userAgent string, t Transport, discovery *Discovery, tokens *TokenManager, pageSize int, logger *slog.Logger) *SearchClient {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SearchClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		transport: t,
		discovery: discovery,
		tokens:    tokens,
		pageSize:  pageSize,
		logger:    logging.NewComponentLogger(logger, "hltb-search"),
	}
}

type searchRequest struct {
	SearchType    string        `json:"searchType"`
	SearchTerms   []string      `json:"searchTerms"`
	SearchPage    int           `json:"searchPage"`
	Size          int           `json:"size"`
	SearchOptions searchOptions `json:"searchOptions"`
	UseCache      bool          `json:"useCache"`
}

type searchOptions struct {
	Games      gameOptions `json:"games"`
	Users      sortOnly    `json:"users"`
	Lists      sortOnly    `json:"lists"`
	Filter     string      `json:"filter"`
	Sort       int         `json:"sort"`
	Randomizer int         `json:"randomizer"`
}

type gameOptions struct {
	UserID        int             `json:"userId"`
	Platform      string          `json:"platform"`
	SortCategory  string          `json:"sortCategory"`
	RangeCategory string          `json:"rangeCategory"`
	RangeTime     rangeTime       `json:"rangeTime"`
	Gameplay      gameplayOptions `json:"gameplay"`
	RangeYear     rangeYear       `json:"rangeYear"`
	Modifier      string          `json:"modifier"`
}

type rangeTime struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

type gameplayOptions struct {
	Perspective string `json:"perspective"`
	Flow        string `json:"flow"`
	Genre       string `json:"genre"`
	Difficulty  string `json:"difficulty"`
}

type rangeYear struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type sortOnly struct {
	SortCategory string `json:"sortCategory"`
}

// buildSearchRequest returns the request body the site's own front end sends.
func buildSearchRequest(query string, page, size int, modifier string) searchRequest {
	terms := strings.Fields(query)
	if terms == nil {
		terms = []string{}
	}
	return searchRequest{
		SearchType:  "games",
		SearchTerms: terms,
		SearchPage:  page,
		Size:        size,
		SearchOptions: searchOptions{
			Games: gameOptions{
				SortCategory:  "popular",
				RangeCategory: "main",
				Modifier:      modifier,
			},
			Users: sortOnly{SortCategory: "postcount"},
			Lists: sortOnly{SortCategory: "follows"},
		},
		UseCache: true,
	}
}

// Search runs one page of a game search. page values below 1 select page 1.
// An empty result page is returned as an empty slice with no error.
func (c *SearchClient) Search(ctx context.Context, query string, page int, modifier string) ([]Game, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is empty")
	}
	if page < 1 {
		page = 1
	}
	logger := logging.WithContext(ctx, c.logger)

	endpoint := c.discovery.SearchURL(ctx)
	token, err := c.tokens.Token(ctx, false)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(buildSearchRequest(query, page, c.pageSize, modifier))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	headers := browserHeaders(c.baseURL, c.userAgent)
	headers.Set("Content-Type", "application/json")
	headers.Set("x-auth-token", token)

	start := time.Now()
	resp, err := c.transport.Post(ctx, endpoint, headers, body)
	if err != nil {
		return nil, wrap(ErrTransport, "search", "request failed", err)
	}
	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		c.tokens.Invalidate()
		logging.WarnWithContext(logger, "search rejected token", "search_auth_rejected",
			logging.HTTPStatus(resp.Status),
			logging.String(logging.FieldImpact, "token dropped; next search fetches a new one"),
		)
		return nil, statusError("search", resp.Status)
	}
	if !resp.OK() {
		return nil, statusError("search", resp.Status)
	}

	games, err := decodeSearchResponse(resp.Body)
	if err != nil {
		return nil, wrap(ErrSchema, "search", "response rejected", err)
	}
	logger.Debug("search completed",
		logging.String("endpoint", endpoint),
		logging.Int("page", page),
		logging.Int("results", len(games)),
		logging.Duration("latency", time.Since(start)),
	)
	return games, nil
}

func decodeSearchResponse(body []byte) ([]Game, error) {
	envelope, err := decodeRecord(body)
	if err != nil {
		return nil, err
	}
	if !envelope.present("data") {
		return nil, fmt.Errorf("field %q missing", "data")
	}
	items, err := array(envelope["data"])
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", "data", err)
	}
	games := make([]Game, 0, len(items))
	for i, item := range items {
		game, err := decodeSearchItem(item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		games = append(games, game)
	}
	return games, nil
}

func decodeSearchItem(raw json.RawMessage) (Game, error) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return Game{}, err
	}
	var game Game
	if game.ID, err = rec.integer("game_id"); err != nil {
		return Game{}, err
	}
	if game.Name, err = rec.string("game_name"); err != nil {
		return Game{}, err
	}
	if game.Popularity, err = rec.integer("comp_all_count"); err != nil {
		return Game{}, err
	}
	if game.MainSeconds, err = rec.optionalSeconds("comp_main"); err != nil {
		return Game{}, err
	}
	if game.PlusSeconds, err = rec.optionalSeconds("comp_plus"); err != nil {
		return Game{}, err
	}
	if game.CompletionistSeconds, err = rec.optionalSeconds("comp_100"); err != nil {
		return Game{}, err
	}
	if game.AllStylesSeconds, err = rec.optionalSeconds("comp_all"); err != nil {
		return Game{}, err
	}
	return game, nil
}
