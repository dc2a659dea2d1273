package hltb

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"playtime/internal/logging"
	"playtime/internal/transport"
)

// Transport is the request primitive the client consumes.
type Transport interface {
	Get(ctx context.Context, url string, headers http.Header) (transport.Response, error)
	Post(ctx context.Context, url string, headers http.Header, body []byte) (transport.Response, error)
}

const (
	fallbackSearchPath = "/api/search"
	// postWindow bounds how far past an /api literal the method marker may appear.
	postWindow = 400
)

var (
	bundlePattern     = regexp.MustCompile(`["']((?:https?://[^"'\s]+)?/_next/static/chunks/[^"'\s]+?\.js)["']`)
	apiLiteralPattern = regexp.MustCompile("[\"'`]/api/([A-Za-z0-9_\\-/]+)[\"'`]")
	postMethodPattern = regexp.MustCompile(`method\s*:\s*["'\x60]POST["'\x60]`)
	buildIDPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`/_next/static/([A-Za-z0-9_\-]+)/_buildManifest\.js`),
		regexp.MustCompile(`/_next/static/([A-Za-z0-9_\-]+)/_ssgManifest\.js`),
	}
)

// skippedAPIPaths are /api literals that never name the search endpoint.
var skippedAPIPaths = []string{"search/init", "user", "logout", "error", "locale", "game", "stats", "auth"}

// Discovery locates the search endpoint and the Next.js build id.
type Discovery struct {
	baseURL   string
	userAgent string
	transport Transport
	session   *Session
	logger    *slog.Logger
}

// NewDiscovery builds a Discovery that caches into session.
func NewDiscovery(baseURL, userAgent string, t Transport, session *Session, logger *slog.Logger) *Discovery {
	return &Discovery{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		transport: t,
		session:   session,
		logger:    logging.NewComponentLogger(logger, "hltb-discovery"),
	}
}

// FallbackSearchURL is the endpoint used when no bundle yields a verified one.
func (d *Discovery) FallbackSearchURL() string {
	return d.baseURL + fallbackSearchPath
}

// Homepage returns the cached homepage body, fetching it on first use.
func (d *Discovery) Homepage(ctx context.Context) (string, error) {
	return resolve(ctx, d.session, slot[string]{
		key: "homepage",
		cached: func() (string, bool) {
			return d.session.homepage, d.session.hasHomepage
		},
		fetch: func(ctx context.Context) (string, bool, error) {
			resp, err := d.transport.Get(ctx, d.baseURL+"/", browserHeaders(d.baseURL, d.userAgent))
			if err != nil {
				return "", false, wrap(ErrTransport, "homepage", "request failed", err)
			}
			if !resp.OK() {
				return "", false, statusError("homepage", resp.Status)
			}
			return string(resp.Body), true, nil
		},
		store: func(body string) {
			d.session.homepage = body
			d.session.hasHomepage = true
		},
	})
}

// SearchURL returns the absolute search endpoint. It never fails: any
// discovery problem degrades to the static fallback, which is cached like a
// discovered value. A fallback caused by the caller giving up is returned but
// not cached.
func (d *Discovery) SearchURL(ctx context.Context) string {
	value, err := resolve(ctx, d.session, slot[string]{
		key: "search_url",
		cached: func() (string, bool) {
			return d.session.searchURL, d.session.searchURL != ""
		},
		fetch: func(ctx context.Context) (string, bool, error) {
			found := d.discoverSearchURL(ctx)
			return found, ctx.Err() == nil, nil
		},
		store: func(u string) {
			d.session.searchURL = u
		},
	})
	if err != nil || value == "" {
		return d.FallbackSearchURL()
	}
	return value
}

// BuildID returns the Next.js build id. The error wraps ErrNotFound when the
// homepage carries no manifest reference or could not be fetched.
func (d *Discovery) BuildID(ctx context.Context) (string, error) {
	return resolve(ctx, d.session, slot[string]{
		key: "build_id",
		cached: func() (string, bool) {
			return d.session.buildID, d.session.buildID != ""
		},
		fetch: func(ctx context.Context) (string, bool, error) {
			body, err := d.Homepage(ctx)
			if err != nil {
				return "", false, wrap(ErrNotFound, "build id", "homepage unavailable", err)
			}
			id := ExtractBuildID(body)
			if id == "" {
				return "", false, wrap(ErrNotFound, "build id", "no manifest reference in homepage", nil)
			}
			return id, true, nil
		},
		store: func(id string) {
			d.session.buildID = id
		},
	})
}

func (d *Discovery) discoverSearchURL(ctx context.Context) string {
	fallback := d.FallbackSearchURL()
	body, err := d.Homepage(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "homepage fetch failed; using fallback search endpoint",
			"search_discovery",
			logging.Error(err),
			logging.String("fallback", fallback),
			logging.String(logging.FieldErrorHint, "check connectivity to the catalog site"),
		)
		return fallback
	}

	for _, ref := range BundleRefs(body) {
		if err := ctx.Err(); err != nil {
			return fallback
		}
		bundleURL := d.absolute(ref)
		resp, err := d.transport.Get(ctx, bundleURL, browserHeaders(d.baseURL, d.userAgent))
		if err != nil || !resp.OK() {
			d.logger.Debug("bundle fetch skipped",
				logging.String("bundle", bundleURL),
				logging.HTTPStatus(resp.Status),
				logging.Error(err),
			)
			continue
		}
		if path, ok := FindSearchPath(string(resp.Body)); ok {
			found := d.baseURL + "/api/" + path
			d.logger.Info("search endpoint discovered",
				logging.String("endpoint", found),
				logging.String("bundle", bundleURL),
			)
			return found
		}
	}

	d.logger.Info("no search endpoint in bundles; using fallback", logging.String("endpoint", fallback))
	return fallback
}

func (d *Discovery) absolute(ref string) string {
	base, err := url.Parse(d.baseURL + "/")
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// BundleRefs lists chunk bundle references in document order, de-duplicated.
func BundleRefs(homepage string) []string {
	matches := bundlePattern.FindAllStringSubmatch(homepage, -1)
	refs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		refs = append(refs, m[1])
	}
	return refs
}

// FindSearchPath returns the first /api path literal in bundle that is not on
// the skip list and is followed by a POST method marker within a short window.
// The returned path has no leading "/api/"; a trailing slash in the literal
// is kept.
func FindSearchPath(bundle string) (string, bool) {
	for _, loc := range apiLiteralPattern.FindAllStringSubmatchIndex(bundle, -1) {
		path := strings.TrimLeft(bundle[loc[2]:loc[3]], "/")
		name := strings.TrimRight(path, "/")
		if name == "" || skippedAPIPath(name) {
			continue
		}
		end := min(loc[1]+postWindow, len(bundle))
		if postMethodPattern.MatchString(bundle[loc[1]:end]) {
			return path, true
		}
	}
	return "", false
}

func skippedAPIPath(path string) bool {
	for _, skip := range skippedAPIPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// ExtractBuildID returns the build id named by the homepage's build or SSG
// manifest reference, or "" when neither appears.
func ExtractBuildID(homepage string) string {
	for _, pattern := range buildIDPatterns {
		if m := pattern.FindStringSubmatch(homepage); m != nil {
			return m[1]
		}
	}
	return ""
}

func browserHeaders(baseURL, userAgent string) http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Origin", baseURL)
	h.Set("Referer", baseURL+"/")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return h
}
