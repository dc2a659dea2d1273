package resultcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"playtime/internal/config"
	"playtime/internal/hltb"
)

// Store manages cached lookups backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	policy Policy
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for freshness checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the cache database named by the configuration.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	policy := Policy{
		FreshTTL:    cfg.FreshTTL(),
		StaleTTL:    cfg.StaleTTL(),
		NegativeTTL: cfg.NegativeTTL(),
	}
	return OpenPath(cfg.Cache.Path, policy, opts...)
}

// OpenPath initializes or connects to the cache database at path.
func OpenPath(path string, policy Policy, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Policy returns the freshness windows in effect.
func (s *Store) Policy() Policy {
	return s.policy
}

// Classify reports the freshness of entry now.
func (s *Store) Classify(entry Entry) Freshness {
	return s.policy.Classify(entry.Found, entry.StoredAt, s.now())
}

const entryColumns = "id, key, title, steam_app_id, found, payload, stored_at"

// timeLayout is fixed width so stored_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Get returns the entry for key and its freshness. ok is false when no entry
// exists; expired entries are still returned.
func (s *Store) Get(ctx context.Context, key string) (Entry, Freshness, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM results WHERE key = ?`, key)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, Expired, false, nil
	}
	if err != nil {
		return Entry{}, Expired, false, fmt.Errorf("get cache entry: %w", err)
	}
	return entry, s.Classify(entry), true, nil
}

// Put inserts or replaces the entry for entry.Key, stamping it with the
// current time.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Key) == "" {
		return errors.New("cache key is empty")
	}
	var payload any
	if entry.Found {
		data, err := json.Marshal(entry.Game)
		if err != nil {
			return fmt.Errorf("marshal cached game: %w", err)
		}
		payload = string(data)
	}
	found := 0
	if entry.Found {
		found = 1
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO results (key, title, steam_app_id, found, payload, stored_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             title = excluded.title,
             steam_app_id = excluded.steam_app_id,
             found = excluded.found,
             payload = excluded.payload,
             stored_at = excluded.stored_at`,
		entry.Key,
		entry.Title,
		max(entry.SteamAppID, 0),
		found,
		payload,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Remove deletes the entry with the given id. It reports whether a row existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove cache entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RemoveKey deletes the entry for key.
func (s *Store) RemoveKey(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}

// List returns all entries, most recently stored first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM results ORDER BY stored_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM results`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache: %w", err)
	}
	return count, nil
}

// Prune deletes expired entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	positiveCutoff := now.Add(-s.policy.StaleTTL).Format(timeLayout)
	negativeCutoff := now.Add(-s.policy.NegativeTTL).Format(timeLayout)
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM results
         WHERE (found = 1 AND stored_at <= ?)
            OR (found = 0 AND stored_at <= ?)`,
		positiveCutoff,
		negativeCutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry    Entry
		found    int
		payload  sql.NullString
		storedAt string
	)
	if err := row.Scan(&entry.ID, &entry.Key, &entry.Title, &entry.SteamAppID, &found, &payload, &storedAt); err != nil {
		return Entry{}, err
	}
	entry.Found = found != 0
	parsed, err := time.Parse(timeLayout, storedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse stored_at: %w", err)
	}
	entry.StoredAt = parsed
	if entry.Found && payload.Valid {
		var game hltb.Game
		if err := json.Unmarshal([]byte(payload.String), &game); err != nil {
			return Entry{}, fmt.Errorf("decode cached game: %w", err)
		}
		entry.Game = game
	}
	return entry, nil
}
