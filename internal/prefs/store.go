// Package prefs persists each user's preferred platform.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"tunelink/pkg/musiclink"
)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	user_key   TEXT PRIMARY KEY,
	platform   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store is a trivial key-value store mapping a user key to a preferred
// platform, backed by a local SQLite file. Preferences never expire.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Get returns the stored preference for userKey, or PlatformUnknown when the
// user has none.
func (s *Store) Get(ctx context.Context, userKey string) (musiclink.Platform, error) {
	var platform string
	err := s.db.QueryRowContext(ctx,
		`SELECT platform FROM preferences WHERE user_key = ?`, userKey).Scan(&platform)
	if errors.Is(err, sql.ErrNoRows) {
		return musiclink.PlatformUnknown, nil
	}
	if err != nil {
		return musiclink.PlatformUnknown, fmt.Errorf("failed to read preference: %w", err)
	}

	return musiclink.ParsePlatform(platform), nil
}

// Set creates or updates the preference for userKey.
func (s *Store) Set(ctx context.Context, userKey string, platform musiclink.Platform) error {
	if !platform.Known() {
		return fmt.Errorf("unknown platform %q", platform)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_key, platform, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_key) DO UPDATE SET platform = excluded.platform, updated_at = excluded.updated_at`,
		userKey, string(platform), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store preference: %w", err)
	}

	s.logger.Debug("Preference stored",
		zap.String("userKey", userKey),
		zap.String("platform", string(platform)))
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
