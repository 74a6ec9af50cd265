package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/channelguide/internal/catalog"
	"github.com/abelbrown/channelguide/internal/config"
	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/live"
	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/otel"
	"github.com/abelbrown/channelguide/internal/store"
	"github.com/abelbrown/channelguide/internal/ui"
)

// ringSize is how many recent events the debug overlay can show.
const ringSize = 512

// lastRange remembers the range the guide last asked for, so the periodic
// tick refreshes what is on screen.
type lastRange struct {
	mu sync.Mutex
	r  coord.Range
}

func (l *lastRange) set(r coord.Range) {
	l.mu.Lock()
	l.r = r
	l.mu.Unlock()
}

func (l *lastRange) get() coord.Range {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r
}

func main() {
	configPath := flag.String("config", config.ConfigPath(), "Config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("channelguide: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Init(cfg.Log.Level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	// Event log: JSONL file when configured, ring buffer always
	var events *otel.Logger
	if cfg.EventLog != "" {
		events, err = otel.OpenFile(cfg.EventLog)
		if err != nil {
			logging.Warn("event log disabled", "path", cfg.EventLog, "err", err)
		}
	}
	if events == nil {
		events = otel.NewNullLogger()
	}
	ring := otel.NewRingBuffer(ringSize)
	events.SetRingBuffer(ring)
	defer events.Close()
	events.Info(otel.KindStartup, "main", "guide starting")

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := catalog.NewResolver(st, cfg.Refresh.CatalogRatePerSec, cfg.Refresh.CatalogBurst)
	tuner := live.NewTuner()

	// The coordinator needs the program (for its display) and the program
	// needs the coordinator (for refresh commands), so bind it late.
	var coordinator *coord.Coordinator
	var visible lastRange

	app := ui.NewApp(ui.AppConfig{
		LoadLineup: func() tea.Cmd {
			return func() tea.Msg {
				channels, err := resolver.Lineup(ctx)
				return ui.LineupLoaded{Channels: channels, Err: err}
			}
		},
		SetLineup: func(channels []coord.Channel) {
			coordinator.SetLineup(channels)
		},
		RequestRefresh: func(r coord.Range, reason coord.Reason, focus string) tea.Cmd {
			visible.set(r)
			coordinator.SetFocus(focus)
			done := coordinator.Refresh(r, reason)
			return func() tea.Msg {
				return ui.RefreshDone{Reason: reason, Err: <-done}
			}
		},
		Tune: func(ch coord.Channel) tea.Cmd {
			return func() tea.Msg {
				err := tuner.TuneTo(ctx, resolver, ch)
				return ui.TuneDone{ChannelID: ch.ID, Err: err}
			}
		},
		Span:        cfg.Guide.Span(),
		Slot:        cfg.Guide.Slot(),
		VisibleRows: cfg.Guide.VisibleRows,
		Ring:        ring,
	})

	program := tea.NewProgram(app, tea.WithAltScreen())

	coordinator = coord.NewCoordinator(resolver, tuner, ui.NewProgramDisplay(program), coord.Options{
		Workers:        cfg.Refresh.Workers,
		Debounce:       cfg.Refresh.Debounce(),
		Buffer:         cfg.Guide.BufferChannels,
		ContentTimeout: cfg.Refresh.ContentTimeout(),
		Events:         events,
	})

	// Keep "on air" current without input. Until the guide first asks for
	// a range the tick sees a zero Range and skips.
	coordinator.StartTicker(ctx, cfg.Refresh.Tick(), visible.get)

	// Run UI (blocks until quit)
	_, runErr := program.Run()

	// Graceful shutdown
	cancel()
	coordinator.Close()
	tuner.Stop()
	events.Info(otel.KindShutdown, "main", "guide stopped")

	if runErr != nil {
		logging.Error("guide exited with error", "err", runErr)
		return runErr
	}
	return nil
}
