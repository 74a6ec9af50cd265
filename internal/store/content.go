package store

import (
	"fmt"
	"time"
)

// ContentItem is one entry in a channel's ordered content list.
type ContentItem struct {
	ChannelID  string
	ID         string
	Title      string
	DurationMs int64
	Ordinal    int
	SourceURL  string
	Added      time.Time
}

// ReplaceContent swaps a channel's content list for items, in order.
// Ordinals are reassigned 0..n-1.
// Thread-safe: acquires write lock.
func (s *Store) ReplaceContent(channelID string, items []ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM content_items WHERE channel_id = ?", channelID); err != nil {
		return fmt.Errorf("clear content for %s: %w", channelID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO content_items (channel_id, id, title, duration_ms, ordinal, source_url, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, it := range items {
		if _, err := stmt.Exec(channelID, it.ID, it.Title, it.DurationMs, i, it.SourceURL, now); err != nil {
			return fmt.Errorf("insert %s/%s: %w", channelID, it.ID, err)
		}
	}
	return tx.Commit()
}

// AppendContent adds items after the channel's current last ordinal,
// returning the count of new items inserted.
// Duplicates (by channel + id) are silently ignored via INSERT OR IGNORE.
// Thread-safe: acquires write lock.
func (s *Store) AppendContent(channelID string, items []ContentItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(ordinal) + 1, 0) FROM content_items WHERE channel_id = ?", channelID,
	).Scan(&next); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO content_items (channel_id, id, title, duration_ms, ordinal, source_url, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	newCount := 0
	for _, it := range items {
		result, err := stmt.Exec(channelID, it.ID, it.Title, it.DurationMs, next, it.SourceURL, now)
		if err != nil {
			return newCount, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return newCount, err
		}
		if affected > 0 {
			newCount++
			next++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// GetContent returns a channel's content ordered by ordinal.
// Thread-safe: acquires read lock.
func (s *Store) GetContent(channelID string) ([]ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT channel_id, id, title, duration_ms, ordinal, source_url, added_at
		FROM content_items
		WHERE channel_id = ?
		ORDER BY ordinal, id
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		var it ContentItem
		if err := rows.Scan(
			&it.ChannelID,
			&it.ID,
			&it.Title,
			&it.DurationMs,
			&it.Ordinal,
			&it.SourceURL,
			&it.Added,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountContent returns the number of items and their total duration.
// Thread-safe: acquires read lock.
func (s *Store) CountContent(channelID string) (count int, totalMs int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(duration_ms), 0) FROM content_items WHERE channel_id = ?",
		channelID,
	).Scan(&count, &totalMs)
	return count, totalMs, err
}
