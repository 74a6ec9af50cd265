// Package fetch imports on-demand content from podcast and RSS feeds.
//
// Episodes become catalog content items: the itunes:duration (or the
// enclosure's duration attribute as a fallback) supplies the length, and the
// GUID or enclosure URL supplies a stable id. Episodes without a usable
// duration cannot be scheduled and are skipped.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/channelguide/internal/store"
)

// Fetcher retrieves feeds over HTTP.
type Fetcher struct {
	client *http.Client
}

// Result is the outcome of one feed import.
type Result struct {
	FeedTitle string
	Items     []store.ContentItem // oldest episode first
	Skipped   int                 // episodes without a usable duration
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves and converts a feed. Does NOT store items - caller decides
// what to do with them. Respects context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, channelID, url string) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "channelguide/0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	return convertFeed(feed, channelID), nil
}

// convertFeed turns feed episodes into content items, oldest first.
func convertFeed(feed *gofeed.Feed, channelID string) Result {
	res := Result{FeedTitle: feed.Title}

	type dated struct {
		item store.ContentItem
		at   time.Time
		pos  int
	}
	var episodes []dated

	for i, fi := range feed.Items {
		ms, ok := episodeDuration(fi)
		if !ok {
			res.Skipped++
			continue
		}

		var at time.Time
		if fi.PublishedParsed != nil {
			at = *fi.PublishedParsed
		} else if fi.UpdatedParsed != nil {
			at = *fi.UpdatedParsed
		}

		episodes = append(episodes, dated{
			item: store.ContentItem{
				ChannelID:  channelID,
				ID:         generateID(fi),
				Title:      strings.TrimSpace(fi.Title),
				DurationMs: ms,
				SourceURL:  episodeURL(fi),
			},
			at:  at,
			pos: i,
		})
	}

	// Feeds list newest first; a channel plays them in release order.
	// Without a date on every episode, fall back to reversed feed order.
	allDated := true
	for _, e := range episodes {
		if e.at.IsZero() {
			allDated = false
			break
		}
	}
	sort.SliceStable(episodes, func(a, b int) bool {
		if allDated && !episodes[a].at.Equal(episodes[b].at) {
			return episodes[a].at.Before(episodes[b].at)
		}
		return episodes[a].pos > episodes[b].pos
	})

	res.Items = make([]store.ContentItem, len(episodes))
	for i, e := range episodes {
		e.item.Ordinal = i
		res.Items[i] = e.item
	}
	return res
}

// episodeDuration reads itunes:duration, then a "duration" custom field.
func episodeDuration(fi *gofeed.Item) (int64, bool) {
	if fi.ITunesExt != nil {
		if ms, ok := ParseDuration(fi.ITunesExt.Duration); ok {
			return ms, true
		}
	}
	if fi.Custom != nil {
		if ms, ok := ParseDuration(fi.Custom["duration"]); ok {
			return ms, true
		}
	}
	return 0, false
}

// ParseDuration accepts "HH:MM:SS", "MM:SS" or plain seconds and returns
// milliseconds. Zero and negative lengths are rejected.
func ParseDuration(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	var seconds float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return 0, false
		}
		seconds = seconds*60 + v
	}

	ms := int64(seconds * 1000)
	if ms <= 0 {
		return 0, false
	}
	return ms, true
}

func episodeURL(fi *gofeed.Item) string {
	for _, enc := range fi.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return fi.Link
}

// generateID creates a deterministic ID for an episode.
// Uses the GUID if available, then the enclosure URL, then the link.
func generateID(fi *gofeed.Item) string {
	if fi.GUID != "" {
		return hashString(fi.GUID)
	}
	if u := episodeURL(fi); u != "" {
		return hashString(u)
	}
	key := fi.Title
	if fi.PublishedParsed != nil {
		key += fi.PublishedParsed.String()
	}
	return hashString(key)
}

// hashString creates a short hash of a string for use as an ID.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}
