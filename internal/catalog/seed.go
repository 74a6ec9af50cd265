package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/abelbrown/channelguide/internal/config"
	"github.com/abelbrown/channelguide/internal/fetch"
	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/otel"
	"github.com/abelbrown/channelguide/internal/store"
)

// ApplyLineup writes every channel in l to the store. Channels that list
// items have their content replaced; channels without items keep theirs.
// Returns the number of channels written.
func ApplyLineup(st *store.Store, l *config.Lineup) (int, error) {
	for i, spec := range l.Channels {
		anchor, err := spec.AnchorTime()
		if err != nil {
			return i, fmt.Errorf("channel %s: %w", spec.ID, err)
		}
		seed, err := spec.ResolveSeed()
		if err != nil {
			return i, fmt.Errorf("channel %s: %w", spec.ID, err)
		}
		mode := strings.ToLower(strings.TrimSpace(spec.Mode))

		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		if err := st.UpsertChannel(store.Channel{
			ID:       spec.ID,
			Number:   spec.Number,
			Name:     name,
			Mode:     mode,
			Seed:     seed,
			AnchorMs: anchor.UnixMilli(),
			FeedURL:  spec.Feed,
		}); err != nil {
			return i, fmt.Errorf("channel %s: %w", spec.ID, err)
		}

		if len(spec.Items) == 0 {
			continue
		}
		items := make([]store.ContentItem, len(spec.Items))
		for j, it := range spec.Items {
			ms, err := it.DurationMs()
			if err != nil {
				return i, fmt.Errorf("channel %s item %s: %w", spec.ID, it.ID, err)
			}
			id := it.ID
			if id == "" {
				id = fmt.Sprintf("%s-%03d", spec.ID, j)
			}
			items[j] = store.ContentItem{ID: id, Title: it.Title, DurationMs: ms}
		}
		if err := st.ReplaceContent(spec.ID, items); err != nil {
			return i, err
		}
	}
	return len(l.Channels), nil
}

// ImportResult describes one feed import.
type ImportResult struct {
	FeedTitle string
	Added     int
	Skipped   int
	Total     int
}

// ImportFeed fetches a podcast or RSS feed and appends its episodes to an
// existing channel. Episodes already present are left alone. events may be nil.
func ImportFeed(ctx context.Context, st *store.Store, f *fetch.Fetcher, events *otel.Logger, channelID, url string) (ImportResult, error) {
	ch, err := st.GetChannel(channelID)
	if err != nil {
		return ImportResult{}, err
	}

	res, err := f.Fetch(ctx, channelID, url)
	if err != nil {
		events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindImport, Comp: "catalog", Channel: channelID, Err: err.Error()})
		return ImportResult{}, err
	}

	added, err := st.AppendContent(channelID, res.Items)
	if err != nil {
		return ImportResult{}, err
	}
	if ch.FeedURL != url {
		ch.FeedURL = url
		if err := st.UpsertChannel(ch); err != nil {
			return ImportResult{}, err
		}
	}
	total, _, err := st.CountContent(channelID)
	if err != nil {
		return ImportResult{}, err
	}

	logging.Info("feed imported", "channel", channelID, "feed", res.FeedTitle, "added", added, "skipped", res.Skipped)
	events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindImport, Comp: "catalog", Channel: channelID, Count: added,
		Extra: map[string]any{"feed": res.FeedTitle, "skipped": res.Skipped},
	})
	return ImportResult{FeedTitle: res.FeedTitle, Added: added, Skipped: res.Skipped, Total: total}, nil
}
