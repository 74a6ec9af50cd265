// Package coord keeps the guide's visible schedule windows current.
//
// Refresh requests are debounced, then run against a bounded worker pool in
// priority order. Every call to Refresh bumps a generation; work belonging
// to an older generation is abandoned at the next checkpoint and never
// delivered.
package coord

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/otel"
	"github.com/abelbrown/channelguide/internal/schedule"
)

const (
	// DefaultWorkers is the number of channels refreshed concurrently.
	DefaultWorkers = 4

	// DefaultDebounce collapses bursts of refresh requests.
	DefaultDebounce = 150 * time.Millisecond

	// DefaultBuffer is the number of rows refreshed past each visible edge.
	DefaultBuffer = 2

	// DefaultContentTimeout bounds one resolver call.
	DefaultContentTimeout = 15 * time.Second
)

const comp = "coord"

// Options tunes a Coordinator. Zero Workers, Debounce and ContentTimeout
// take the defaults above; a negative Debounce disables debouncing and a
// negative Buffer selects DefaultBuffer.
type Options struct {
	Workers        int
	Debounce       time.Duration
	Buffer         int
	ContentTimeout time.Duration
	Events         *otel.Logger // optional
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Debounce < 0 {
		o.Debounce = 0
	} else if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Buffer < 0 {
		o.Buffer = DefaultBuffer
	}
	if o.ContentTimeout <= 0 {
		o.ContentTimeout = DefaultContentTimeout
	}
	return o
}

// request is one Refresh call waiting for (or running in) a refresh run.
type request struct {
	gen    uint64
	r      Range
	reason Reason
	ctx    context.Context // canceled when a newer call arrives
}

type waiter struct {
	gen uint64
	ch  chan error
}

type cachedIndex struct {
	key string
	idx *schedule.Index
}

type outcome int

const (
	outcomeDelivered outcome = iota
	outcomeReused
	outcomeStale
	outcomeFailed
)

// Coordinator runs schedule refreshes for the guide.
type Coordinator struct {
	resolver ContentResolver
	live     LivePlayback // optional
	display  Display      // optional
	opts     Options
	events   *otel.Logger
	windows  *WindowStore

	gen atomic.Uint64

	mu          sync.Mutex
	lineup      []Channel
	members     map[string]bool // ids in lineup
	focus       string
	pending     *request
	timer       *time.Timer
	cancelLast  context.CancelFunc
	waiters     []waiter
	lastStarted uint64
	lastRun     RunStats
	closed      bool

	cacheMu sync.Mutex
	cache   map[string]cachedIndex // channel id -> last built index

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewCoordinator creates a Coordinator. live and display may be nil.
func NewCoordinator(resolver ContentResolver, live LivePlayback, display Display, opts Options) *Coordinator {
	opts = opts.withDefaults()
	root, stop := context.WithCancel(context.Background())
	return &Coordinator{
		resolver: resolver,
		live:     live,
		display:  display,
		opts:     opts,
		events:   opts.Events,
		windows:  NewWindowStore(),
		cache:    make(map[string]cachedIndex),
		root:     root,
		stop:     stop,
	}
}

// SetLineup replaces the channel lineup used by later runs. Windows for
// channels no longer in the lineup are dropped.
func (c *Coordinator) SetLineup(channels []Channel) {
	lineup := make([]Channel, len(channels))
	copy(lineup, channels)

	keep := make(map[string]bool, len(lineup))
	for _, ch := range lineup {
		keep[ch.ID] = true
	}

	// Order matters: membership flips first, then windows and cache entries
	// go. deliver and index re-check membership after they write, so an
	// in-flight run cannot bring a removed channel back.
	c.mu.Lock()
	c.lineup = lineup
	c.members = keep
	c.mu.Unlock()

	for id := range c.windows.Snapshot() {
		if !keep[id] {
			c.windows.Forget(id)
		}
	}
	c.cacheMu.Lock()
	for id := range c.cache {
		if !keep[id] {
			delete(c.cache, id)
		}
	}
	c.cacheMu.Unlock()
}

// Lineup returns a copy of the current lineup.
func (c *Coordinator) Lineup() []Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Channel, len(c.lineup))
	copy(out, c.lineup)
	return out
}

func (c *Coordinator) inLineup(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members[channelID]
}

// SetFocus records the channel under the cursor. It is refreshed right
// after the live channel.
func (c *Coordinator) SetFocus(channelID string) {
	c.mu.Lock()
	c.focus = channelID
	c.mu.Unlock()
}

// Windows exposes the delivered windows.
func (c *Coordinator) Windows() *WindowStore {
	return c.windows
}

// LastRun returns stats for the most recent run that was not superseded.
func (c *Coordinator) LastRun() RunStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

// Generation returns the generation of the latest Refresh call.
func (c *Coordinator) Generation() uint64 {
	return c.gen.Load()
}

// Refresh requests that windows for r be rebuilt. The returned channel
// receives exactly one value: nil when a run covering this call completes,
// the run's error if it fails, or ErrClosed on shutdown. A call superseded
// by a newer one resolves when the newer run completes.
func (c *Coordinator) Refresh(r Range, reason Reason) <-chan error {
	ch := make(chan error, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		ch <- ErrClosed
		return ch
	}

	gen := c.gen.Add(1)
	if c.cancelLast != nil {
		c.cancelLast()
	}
	ctx, cancel := context.WithCancel(c.root)
	c.cancelLast = cancel

	c.pending = &request{gen: gen, r: r, reason: reason, ctx: ctx}
	c.waiters = append(c.waiters, waiter{gen: gen, ch: ch})

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.Debounce, c.fire)
	return ch
}

// fire starts a run for the pending request once the debounce settles.
func (c *Coordinator) fire() {
	c.mu.Lock()
	req := c.pending
	if req == nil || c.closed || req.gen <= c.lastStarted {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.lastStarted = req.gen
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	stats, err := c.run(req)
	c.finish(req, stats, err)
}

// stale reports whether req has been overtaken by a newer call or shutdown.
func (c *Coordinator) stale(req *request) bool {
	return req.ctx.Err() != nil || c.gen.Load() != req.gen
}

func (c *Coordinator) run(req *request) (stats RunStats, err error) {
	stats = RunStats{
		RunID:      uuid.NewString(),
		Generation: req.gen,
		Reason:     req.reason,
		Started:    time.Now(),
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("refresh run %s panicked: %v", stats.RunID, p)
		}
		stats.Duration = time.Since(stats.Started)
	}()

	if err := req.r.validate(); err != nil {
		return stats, err
	}

	c.mu.Lock()
	lineup := c.lineup
	focus := c.focus
	c.mu.Unlock()

	live := c.liveState()
	order := prioritize(lineup, req.r, live, focus, c.opts.Buffer)
	stats.Channels = len(order)

	c.events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindRefreshStart, Comp: comp,
		RunID: stats.RunID, Gen: req.gen, Reason: string(req.reason), Count: len(order),
	})
	logging.Debug("refresh started", "run", stats.RunID, "gen", req.gen, "reason", req.reason, "channels", len(order))

	var delivered, reused, failed, stale atomic.Int32

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)

	for i, ch := range order {
		if c.stale(req) {
			stale.Add(int32(len(order) - i))
			break
		}
		g.Go(func() error {
			switch c.refreshChannel(req, stats.RunID, ch, live) {
			case outcomeDelivered:
				delivered.Add(1)
			case outcomeReused:
				reused.Add(1)
			case outcomeStale:
				stale.Add(1)
			case outcomeFailed:
				failed.Add(1)
			}
			return nil // per-channel failures never fail the run
		})
	}
	_ = g.Wait()

	stats.Delivered = int(delivered.Load())
	stats.Reused = int(reused.Load())
	stats.Failed = int(failed.Load())
	stats.Stale = int(stale.Load())
	return stats, nil
}

func (c *Coordinator) liveState() LiveState {
	if c.live == nil {
		return LiveState{}
	}
	return c.live.State()
}

// refreshChannel produces and delivers one channel's window. Panics are
// contained to the channel.
func (c *Coordinator) refreshChannel(req *request, runID string, ch Channel, live LiveState) (out outcome) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logging.Error("invariant violation during refresh", "channel", ch.ID, "run", runID, "panic", p)
			c.events.Emit(otel.Event{
				Level: otel.LevelError, Kind: otel.KindInvariant, Comp: comp,
				RunID: runID, Gen: req.gen, Channel: ch.ID, Err: fmt.Sprint(p),
			})
			out = outcomeFailed
		}
	}()

	if c.stale(req) {
		return c.discard(req, runID, ch.ID)
	}

	if c.live != nil && live.Active && live.ChannelID == ch.ID {
		w, err := c.live.ScheduleWindow(req.r.StartMs, req.r.EndMs)
		if err == nil {
			if !c.deliver(req, ch.ID, w) {
				return c.discard(req, runID, ch.ID)
			}
			c.events.Emit(otel.Event{
				Level: otel.LevelDebug, Kind: otel.KindChannelReused, Comp: comp,
				RunID: runID, Gen: req.gen, Channel: ch.ID, Count: len(w.Programs), Dur: time.Since(start),
			})
			return outcomeReused
		}
		logging.Warn("live window unavailable, rebuilding", "channel", ch.ID, "err", err)
	}

	rctx, cancel := context.WithTimeout(req.ctx, c.opts.ContentTimeout)
	items, err := c.resolver.ResolveChannelContent(rctx, ch.ID)
	cancel()

	if c.stale(req) {
		return c.discard(req, runID, ch.ID)
	}
	if err != nil {
		rerr := &ContentResolutionError{ChannelID: ch.ID, Err: err}
		logging.Warn("content resolution failed", "channel", ch.ID, "run", runID, "err", err)
		c.events.Emit(otel.Event{
			Level: otel.LevelWarn, Kind: otel.KindContentError, Comp: comp,
			RunID: runID, Gen: req.gen, Channel: ch.ID, Err: rerr.Error(),
		})
		return outcomeFailed
	}

	idx, err := c.index(ch, items)
	if err != nil {
		logging.Error("schedule build failed", "channel", ch.ID, "items", len(items), "err", err)
		c.events.Emit(otel.Event{
			Level: otel.LevelError, Kind: otel.KindBuildError, Comp: comp,
			RunID: runID, Gen: req.gen, Channel: ch.ID, Count: len(items), Err: err.Error(),
		})
		return outcomeFailed
	}

	w := idx.Window(ch.AnchorMs, req.r.StartMs, req.r.EndMs)
	if !c.deliver(req, ch.ID, w) {
		return c.discard(req, runID, ch.ID)
	}

	c.events.Emit(otel.Event{
		Level: otel.LevelDebug, Kind: otel.KindChannelDelivered, Comp: comp,
		RunID: runID, Gen: req.gen, Channel: ch.ID, Count: len(w.Programs), Dur: time.Since(start),
	})
	if otel.TraceEnabled() {
		c.events.Emit(otel.Event{
			Level: otel.LevelDebug, Kind: otel.KindWindowTrace, Comp: comp,
			RunID: runID, Channel: ch.ID,
			Extra: map[string]any{"start_ms": w.StartMs, "end_ms": w.EndMs, "programs": len(w.Programs), "fingerprint": idx.Fingerprint()},
		})
	}
	return outcomeDelivered
}

func (c *Coordinator) discard(req *request, runID, channelID string) outcome {
	c.events.Emit(otel.Event{
		Level: otel.LevelDebug, Kind: otel.KindChannelStale, Comp: comp,
		RunID: runID, Gen: req.gen, Channel: channelID,
	})
	return outcomeStale
}

// deliver publishes w and hands it to the display, unless req went stale,
// the channel left the lineup, or a newer generation already published for
// the channel.
func (c *Coordinator) deliver(req *request, channelID string, w schedule.Window) bool {
	if c.stale(req) {
		return false
	}
	admit := func() bool { return c.inLineup(channelID) }
	return c.windows.PublishIf(channelID, req.gen, w, admit, func() {
		if c.display != nil {
			c.display.LoadScheduleForChannel(channelID, w)
		}
	})
}

// index returns a built index for ch, reusing the previous one when content
// and playback settings are unchanged.
func (c *Coordinator) index(ch Channel, items []schedule.ContentItem) (*schedule.Index, error) {
	key := fmt.Sprintf("%s|%s|%d", schedule.ContentFingerprint(ch.ID, items), ch.Mode, ch.Seed)

	c.cacheMu.Lock()
	cached, ok := c.cache[ch.ID]
	c.cacheMu.Unlock()
	if ok && cached.key == key {
		return cached.idx, nil
	}

	idx, err := schedule.Build(schedule.Config{
		ChannelID: ch.ID,
		Items:     items,
		Mode:      ch.Mode,
		Seed:      ch.Seed,
		AnchorMs:  ch.AnchorMs,
	})
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	if c.inLineup(ch.ID) {
		c.cache[ch.ID] = cachedIndex{key: key, idx: idx}
	}
	c.cacheMu.Unlock()
	return idx, nil
}

// finish settles waiters. A superseded run leaves its waiters for the newer
// run; any other run resolves every waiter at or below its generation.
func (c *Coordinator) finish(req *request, stats RunStats, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return // Close rejects the waiters
	}
	if c.gen.Load() != req.gen {
		stats.Superseded = true
		logging.Debug("refresh superseded", "run", stats.RunID, "gen", req.gen, "stale", stats.Stale)
		c.events.Emit(otel.Event{
			Level: otel.LevelInfo, Kind: otel.KindRefreshSuperseded, Comp: comp,
			RunID: stats.RunID, Gen: req.gen, Reason: string(req.reason), Dur: stats.Duration,
		})
		return
	}

	c.lastRun = stats
	if err != nil {
		logging.Error("refresh failed", "run", stats.RunID, "gen", req.gen, "err", err)
		c.events.Emit(otel.Event{
			Level: otel.LevelError, Kind: otel.KindRefreshFailed, Comp: comp,
			RunID: stats.RunID, Gen: req.gen, Reason: string(req.reason), Err: err.Error(),
		})
	} else {
		logging.Info("refresh complete",
			"run", stats.RunID, "gen", req.gen, "reason", req.reason,
			"delivered", stats.Delivered, "reused", stats.Reused, "failed", stats.Failed,
			"duration", stats.Duration)
		c.events.Emit(otel.Event{
			Level: otel.LevelInfo, Kind: otel.KindRefreshComplete, Comp: comp,
			RunID: stats.RunID, Gen: req.gen, Reason: string(req.reason),
			Count: stats.Delivered + stats.Reused, Dur: stats.Duration,
			Extra: map[string]any{"failed": stats.Failed, "stale": stats.Stale},
		})
	}

	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.gen <= req.gen {
			w.ch <- err
			continue
		}
		remaining = append(remaining, w)
	}
	c.waiters = remaining
}

// StartTicker requests a refresh of rangeFn() every interval until ctx is
// done, so "on air" markers stay current without user input. A zero Range
// skips that tick.
func (c *Coordinator) StartTicker(ctx context.Context, interval time.Duration, rangeFn func() Range) {
	if interval <= 0 {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.root.Done():
				return
			case <-ticker.C:
				if r := rangeFn(); r != (Range{}) {
					c.Refresh(r, ReasonTick)
				}
			}
		}
	}()
}

// Close cancels in-flight work, waits for it to drain, and rejects every
// caller still waiting with ErrClosed. Safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = nil
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, w := range waiters {
		w.ch <- ErrClosed
	}
}
