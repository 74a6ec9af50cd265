package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Channel is a stored channel and its playback settings.
type Channel struct {
	ID       string
	Number   int
	Name     string
	Mode     string // sequential, shuffle, random
	Seed     int64
	AnchorMs int64
	FeedURL  string
	Created  time.Time
	Updated  time.Time
}

// UpsertChannel inserts a channel or updates every field except Created.
// Thread-safe: acquires write lock.
func (s *Store) UpsertChannel(ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch.Mode == "" {
		ch.Mode = "sequential"
	}
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO channels (id, number, name, mode, seed, anchor_ms, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			name = excluded.name,
			mode = excluded.mode,
			seed = excluded.seed,
			anchor_ms = excluded.anchor_ms,
			feed_url = excluded.feed_url,
			updated_at = excluded.updated_at
	`, ch.ID, ch.Number, ch.Name, ch.Mode, ch.Seed, ch.AnchorMs, ch.FeedURL, now, now)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// GetChannel returns one channel or ErrNotFound.
// Thread-safe: acquires read lock.
func (s *Store) GetChannel(id string) (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, number, name, mode, seed, anchor_ms, feed_url, created_at, updated_at
		FROM channels WHERE id = ?
	`, id)

	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Channel{}, fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	return ch, err
}

// ListChannels returns all channels ordered by number, then id.
// Thread-safe: acquires read lock.
func (s *Store) ListChannels() ([]Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, number, name, mode, seed, anchor_ms, feed_url, created_at, updated_at
		FROM channels
		ORDER BY number, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// SetPlayback changes a channel's mode and seed.
// Thread-safe: acquires write lock.
func (s *Store) SetPlayback(id, mode string, seed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE channels SET mode = ?, seed = ?, updated_at = ? WHERE id = ?",
		mode, seed, time.Now(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteChannel removes a channel and its content.
// Thread-safe: acquires write lock.
func (s *Store) DeleteChannel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM content_items WHERE channel_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM channels WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(r rowScanner) (Channel, error) {
	var ch Channel
	err := r.Scan(
		&ch.ID,
		&ch.Number,
		&ch.Name,
		&ch.Mode,
		&ch.Seed,
		&ch.AnchorMs,
		&ch.FeedURL,
		&ch.Created,
		&ch.Updated,
	)
	return ch, err
}
