package testsupport

import (
	"context"
	"testing"

	"playtime/internal/config"
	"playtime/internal/hltb"
	"playtime/internal/resultcache"
)

// MustOpenCache opens a resultcache.Store for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config, opts ...resultcache.Option) *resultcache.Store {
	t.Helper()

	store, err := resultcache.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("resultcache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutGame stores a positive cache entry for title.
func PutGame(t testing.TB, store *resultcache.Store, title string, steamAppID int64, game hltb.Game) {
	t.Helper()

	entry := resultcache.Entry{
		Key:        resultcache.Key(title, steamAppID),
		Title:      title,
		SteamAppID: steamAppID,
		Found:      true,
		Game:       game,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
}
