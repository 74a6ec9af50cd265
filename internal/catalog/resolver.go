// Package catalog adapts the SQLite store to the refresh coordinator: it
// resolves channel content and turns stored channel rows into a lineup.
package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/time/rate"

	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/schedule"
	"github.com/abelbrown/channelguide/internal/store"
)

// Resolver serves channel content from the store. A token bucket caps how
// hard a burst of refreshes can hit the catalog.
type Resolver struct {
	store    *store.Store
	limiter  *rate.Limiter
	randSeed func() int64
}

// NewResolver creates a Resolver. perSecond <= 0 disables rate limiting.
func NewResolver(s *store.Store, perSecond float64, burst int) *Resolver {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Resolver{
		store:    s,
		limiter:  rate.NewLimiter(limit, burst),
		randSeed: rand.Int64,
	}
}

// ResolveChannelContent returns the channel's items in ordinal order.
// Items without a positive duration cannot be scheduled and are dropped.
func (r *Resolver) ResolveChannelContent(ctx context.Context, channelID string) ([]schedule.ContentItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	stored, err := r.store.GetContent(channelID)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	items := make([]schedule.ContentItem, 0, len(stored))
	dropped := 0
	for _, it := range stored {
		if it.DurationMs <= 0 {
			dropped++
			continue
		}
		items = append(items, schedule.ContentItem{
			ID:         it.ID,
			Title:      it.Title,
			DurationMs: it.DurationMs,
			Ordinal:    it.Ordinal,
			Payload:    it.SourceURL,
		})
	}
	if dropped > 0 {
		logging.Warn("dropped items without duration", "channel", channelID, "dropped", dropped)
	}
	return items, nil
}

// Lineup returns every stored channel as a coordinator lineup row.
// Random channels are resolved to Shuffle with a fresh seed, so each call
// yields a different order for them.
func (r *Resolver) Lineup(ctx context.Context) ([]coord.Channel, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	rows, err := r.store.ListChannels()
	if err != nil {
		return nil, err
	}

	out := make([]coord.Channel, 0, len(rows))
	for _, row := range rows {
		mode, err := schedule.ParseMode(row.Mode)
		if err != nil {
			logging.Warn("unknown playback mode, using sequential", "channel", row.ID, "mode", row.Mode)
			mode = schedule.Sequential
		}
		seed := row.Seed
		if mode == schedule.Random {
			mode = schedule.Shuffle
			seed = r.randSeed()
		}
		out = append(out, coord.Channel{
			ID:       row.ID,
			Number:   row.Number,
			Name:     row.Name,
			Mode:     mode,
			Seed:     seed,
			AnchorMs: row.AnchorMs,
		})
	}
	return out, nil
}
