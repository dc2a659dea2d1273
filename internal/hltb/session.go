package hltb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Session holds everything the client discovers at runtime. It is safe for
// concurrent use: concurrent misses on the same field share one fetch, and a
// fetch that started before Invalidate never writes its result back.
type Session struct {
	mu         sync.Mutex
	generation uint64

	homepage    string
	hasHomepage bool
	buildID     string
	searchURL   string
	token       Token

	group singleflight.Group
}

// SessionSnapshot is a point-in-time copy of the discovered state.
type SessionSnapshot struct {
	Generation     uint64
	HomepageCached bool
	BuildID        string
	SearchURL      string
	TokenExpiresAt time.Time
	TokenCached    bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Invalidate drops all discovered state. In-flight fetches complete for their
// own callers but their results are discarded.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.homepage = ""
	s.hasHomepage = false
	s.buildID = ""
	s.searchURL = ""
	s.token = Token{}
}

// Snapshot reports what is currently cached.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Generation:     s.generation,
		HomepageCached: s.hasHomepage,
		BuildID:        s.buildID,
		SearchURL:      s.searchURL,
		TokenExpiresAt: s.token.ExpiresAt,
		TokenCached:    s.token.Value != "",
	}
}

// sharedFetchTimeout bounds a fetch that runs detached from the callers
// waiting on it.
const sharedFetchTimeout = 2 * time.Minute

// slot describes one lazily fetched session field. cached and store run with
// the session lock held. A forced slot ignores the cached value and never
// shares a flight with an unforced one.
type slot[T any] struct {
	key    string
	force  bool
	cached func() (T, bool)
	fetch  func(ctx context.Context) (T, bool, error)
	store  func(T)
}

// resolve returns the cached value for sl or fetches it. fetch reports whether
// its value may be cached; uncacheable values are returned but not stored.
//
// The fetch is shared by every caller of the same field and generation, so it
// runs detached from any one caller's cancellation. A caller whose ctx ends
// stops waiting and gets ctx.Err(); the fetch still completes for the others.
func resolve[T any](ctx context.Context, s *Session, sl slot[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	if !sl.force {
		if value, ok := sl.cached(); ok {
			s.mu.Unlock()
			return value, nil
		}
	}
	gen := s.generation
	s.mu.Unlock()

	key := fmt.Sprintf("%s#%d", sl.key, gen)
	if sl.force {
		key += "!force"
	}
	detached := context.WithoutCancel(ctx)
	flight := s.group.DoChan(key, func() (any, error) {
		if !sl.force {
			s.mu.Lock()
			if value, ok := sl.cached(); ok && s.generation == gen {
				s.mu.Unlock()
				return value, nil
			}
			s.mu.Unlock()
		}

		fetchCtx, cancel := context.WithTimeout(detached, sharedFetchTimeout)
		defer cancel()
		value, cacheable, err := sl.fetch(fetchCtx)
		if err != nil {
			return value, err
		}
		if cacheable {
			s.mu.Lock()
			if s.generation == gen {
				sl.store(value)
			}
			s.mu.Unlock()
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
