package profilecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/brunodmn/threadchat/internal/chat"
	_ "github.com/mattn/go-sqlite3"
)

// Cache is a SQLite-backed cache of profile lookups, keyed by user id
// with a secondary username key. It belongs to the API client, not the
// sync core: the conversation state itself stays purely in-memory and is
// rebuilt from the snapshot on every session start.
type Cache struct {
	*sql.DB
}

// Open creates a new SQLite connection with WAL mode and recommended pragmas.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	return &Cache{db}, nil
}

// Put stores or refreshes a fetched profile. Not-found results are never
// cached; a profile that appears later must be visible immediately.
func (c *Cache) Put(p *chat.Profile) error {
	now := time.Now().UnixMilli()
	_, err := c.Exec(`
		INSERT INTO profiles (id, username, profile_pic, is_frozen, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			profile_pic = excluded.profile_pic,
			is_frozen = excluded.is_frozen,
			fetched_at = excluded.fetched_at`,
		p.ID, p.Username, p.ProfilePic, p.IsFrozen, now)
	return err
}

// Get returns the cached profile whose id or username matches query, if
// it was fetched within maxAge. The second return value reports a hit.
func (c *Cache) Get(query string, maxAge time.Duration) (*chat.Profile, bool, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	var p chat.Profile
	err := c.QueryRow(`
		SELECT id, username, profile_pic, is_frozen
		FROM profiles
		WHERE (id = ? OR username = ?) AND fetched_at >= ?`,
		query, query, cutoff).
		Scan(&p.ID, &p.Username, &p.ProfilePic, &p.IsFrozen)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// Prune deletes entries older than maxAge.
func (c *Cache) Prune(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	_, err := c.Exec(`DELETE FROM profiles WHERE fetched_at < ?`, cutoff)
	return err
}
