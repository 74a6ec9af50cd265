package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/channelguide/internal/config"
	"github.com/abelbrown/channelguide/internal/fetch"
	"github.com/abelbrown/channelguide/internal/otel"
	"github.com/abelbrown/channelguide/internal/schedule"
	"github.com/abelbrown/channelguide/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestResolveDropsNonPositiveDurations(t *testing.T) {
	st := openTestStore(t)
	st.UpsertChannel(store.Channel{ID: "a", Name: "A"})
	st.ReplaceContent("a", []store.ContentItem{
		{ID: "x", Title: "X", DurationMs: 1000, SourceURL: "http://x"},
		{ID: "zero", DurationMs: 0},
		{ID: "neg", DurationMs: -5},
		{ID: "y", DurationMs: 2000},
	})

	r := NewResolver(st, 0, 0)
	items, err := r.ResolveChannelContent(context.Background(), "a")
	if err != nil {
		t.Fatalf("ResolveChannelContent: %v", err)
	}
	if len(items) != 2 || items[0].ID != "x" || items[1].ID != "y" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Payload != "http://x" || items[0].Title != "X" || items[1].Ordinal != 3 {
		t.Errorf("fields not carried: %+v", items)
	}
}

func TestResolveUnknownChannelIsEmpty(t *testing.T) {
	r := NewResolver(openTestStore(t), 0, 0)
	items, err := r.ResolveChannelContent(context.Background(), "ghost")
	if err != nil || len(items) != 0 {
		t.Errorf("got %v, %v", items, err)
	}
}

func TestResolveHonorsContext(t *testing.T) {
	st := openTestStore(t)
	r := NewResolver(st, 0, 0)
	r.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	r.limiter.Allow() // drain the only token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.ResolveChannelContent(ctx, "a"); err == nil {
		t.Error("expected rate limiter to give up when ctx ends")
	}
}

func TestLineup(t *testing.T) {
	st := openTestStore(t)
	st.UpsertChannel(store.Channel{ID: "seq", Number: 1, Name: "Seq", AnchorMs: 500})
	st.UpsertChannel(store.Channel{ID: "shuf", Number: 2, Name: "Shuf", Mode: "shuffle", Seed: 42})
	st.UpsertChannel(store.Channel{ID: "rnd", Number: 3, Name: "Rnd", Mode: "random", Seed: 1})
	st.UpsertChannel(store.Channel{ID: "odd", Number: 4, Name: "Odd", Mode: "bogus"})

	r := NewResolver(st, 0, 0)
	r.randSeed = func() int64 { return 777 }

	lineup, err := r.Lineup(context.Background())
	if err != nil {
		t.Fatalf("Lineup: %v", err)
	}
	if len(lineup) != 4 {
		t.Fatalf("expected 4 channels, got %d", len(lineup))
	}
	if lineup[0].ID != "seq" || lineup[0].Mode != schedule.Sequential || lineup[0].AnchorMs != 500 {
		t.Errorf("seq = %+v", lineup[0])
	}
	if lineup[1].Mode != schedule.Shuffle || lineup[1].Seed != 42 {
		t.Errorf("shuf = %+v", lineup[1])
	}
	if lineup[2].Mode != schedule.Shuffle || lineup[2].Seed != 777 {
		t.Errorf("random should become shuffle with a fresh seed: %+v", lineup[2])
	}
	if lineup[3].Mode != schedule.Sequential {
		t.Errorf("unknown mode should fall back to sequential: %+v", lineup[3])
	}
}

func TestApplyLineup(t *testing.T) {
	st := openTestStore(t)
	l, err := config.ParseLineup([]byte(`
channels:
  - id: cartoons
    number: 2
    mode: shuffle
    seed: auto
    anchor: 2024-01-01T00:00:00Z
    items:
      - {id: a, title: A, duration: 22m}
      - {title: B, duration: 11m}
  - id: news
    number: 1
    name: News
    seed: "9"
`))
	if err != nil {
		t.Fatalf("ParseLineup: %v", err)
	}

	n, err := ApplyLineup(st, l)
	if err != nil || n != 2 {
		t.Fatalf("ApplyLineup = %d, %v", n, err)
	}

	ch, err := st.GetChannel("cartoons")
	if err != nil {
		t.Fatal(err)
	}
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if ch.Name != "cartoons" || ch.Mode != "shuffle" || ch.AnchorMs != anchor {
		t.Errorf("cartoons = %+v", ch)
	}
	if ch.Seed != schedule.GenerateSeed("cartoons", anchor) {
		t.Errorf("auto seed not derived from id+anchor: %d", ch.Seed)
	}

	items, _ := st.GetContent("cartoons")
	if len(items) != 2 || items[0].DurationMs != 22*60*1000 || items[1].ID != "cartoons-001" {
		t.Errorf("items = %+v", items)
	}

	news, _ := st.GetChannel("news")
	if news.Mode != "sequential" || news.Seed != 9 {
		t.Errorf("news = %+v", news)
	}
}

const feed = `<?xml version="1.0"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Show</title>
    <item>
      <title>Two</title>
      <guid>two</guid>
      <enclosure url="http://example.com/2.mp3" length="1" type="audio/mpeg"/>
      <itunes:duration>10:00</itunes:duration>
    </item>
    <item>
      <title>One</title>
      <guid>one</guid>
      <enclosure url="http://example.com/1.mp3" length="1" type="audio/mpeg"/>
      <itunes:duration>5:00</itunes:duration>
    </item>
  </channel>
</rss>`

func TestImportFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	st := openTestStore(t)
	st.UpsertChannel(store.Channel{ID: "pods", Name: "Pods"})
	f := fetch.NewFetcher(5 * time.Second)
	buf := otel.NewRingBuffer(16)
	events := otel.NewNullLogger()
	events.SetRingBuffer(buf)

	res, err := ImportFeed(context.Background(), st, f, events, "pods", srv.URL)
	if err != nil {
		t.Fatalf("ImportFeed: %v", err)
	}
	if res.FeedTitle != "Show" || res.Added != 2 || res.Total != 2 {
		t.Errorf("result = %+v", res)
	}

	res, err = ImportFeed(context.Background(), st, f, nil, "pods", srv.URL)
	if err != nil || res.Added != 0 || res.Total != 2 {
		t.Errorf("re-import = %+v, %v", res, err)
	}

	ch, _ := st.GetChannel("pods")
	if ch.FeedURL != srv.URL {
		t.Errorf("FeedURL = %q", ch.FeedURL)
	}

	items, _ := st.GetContent("pods")
	if items[0].Title != "One" {
		t.Errorf("oldest episode should come first for undated feeds, got %q", items[0].Title)
	}

	events.Close()
	if len(buf.ForChannel("pods")) == 0 {
		t.Error("import event not recorded")
	}
}

func TestImportFeedUnknownChannel(t *testing.T) {
	st := openTestStore(t)
	_, err := ImportFeed(context.Background(), st, fetch.NewFetcher(time.Second), nil, "ghost", "http://example.invalid")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
