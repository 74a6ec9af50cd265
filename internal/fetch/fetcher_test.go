package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const podcastFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Podcast</title>
    <item>
      <title>Episode 3</title>
      <guid>ep-3</guid>
      <enclosure url="http://example.com/ep3.mp3" length="1" type="audio/mpeg"/>
      <pubDate>Wed, 03 Jan 2024 12:00:00 GMT</pubDate>
      <itunes:duration>01:02:03</itunes:duration>
    </item>
    <item>
      <title>Episode 2</title>
      <guid>ep-2</guid>
      <enclosure url="http://example.com/ep2.mp3" length="1" type="audio/mpeg"/>
      <pubDate>Tue, 02 Jan 2024 12:00:00 GMT</pubDate>
      <itunes:duration>45:30</itunes:duration>
    </item>
    <item>
      <title>Trailer</title>
      <guid>trailer</guid>
      <pubDate>Mon, 01 Jan 2024 13:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Episode 1</title>
      <enclosure url="http://example.com/ep1.mp3" length="1" type="audio/mpeg"/>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
      <itunes:duration>1800</itunes:duration>
    </item>
  </channel>
</rss>`

func serveFeed(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPodcastFeed(t *testing.T) {
	srv := serveFeed(t, podcastFeed, http.StatusOK)

	res, err := NewFetcher(5*time.Second).Fetch(context.Background(), "pods", srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if res.FeedTitle != "Test Podcast" {
		t.Errorf("FeedTitle = %q", res.FeedTitle)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (trailer has no duration)", res.Skipped)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}

	want := []struct {
		title string
		ms    int64
	}{
		{"Episode 1", 1800 * 1000},
		{"Episode 2", (45*60 + 30) * 1000},
		{"Episode 3", (3600 + 2*60 + 3) * 1000},
	}
	for i, w := range want {
		it := res.Items[i]
		if it.Title != w.title || it.DurationMs != w.ms {
			t.Errorf("item %d = %q/%d, want %q/%d", i, it.Title, it.DurationMs, w.title, w.ms)
		}
		if it.Ordinal != i || it.ChannelID != "pods" {
			t.Errorf("item %d ordinal/channel = %d/%s", i, it.Ordinal, it.ChannelID)
		}
	}

	if res.Items[0].SourceURL != "http://example.com/ep1.mp3" {
		t.Errorf("SourceURL = %q", res.Items[0].SourceURL)
	}
	if res.Items[2].ID != hashString("ep-3") {
		t.Errorf("GUID-based id expected, got %s", res.Items[2].ID)
	}
	if res.Items[0].ID != hashString("http://example.com/ep1.mp3") {
		t.Errorf("enclosure-based id expected, got %s", res.Items[0].ID)
	}
}

func TestFetchIsDeterministic(t *testing.T) {
	srv := serveFeed(t, podcastFeed, http.StatusOK)
	f := NewFetcher(5 * time.Second)

	a, err := f.Fetch(context.Background(), "pods", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Fetch(context.Background(), "pods", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Items {
		if a.Items[i].ID != b.Items[i].ID {
			t.Errorf("id %d differs between fetches", i)
		}
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := serveFeed(t, "nope", http.StatusNotFound)
	if _, err := NewFetcher(5*time.Second).Fetch(context.Background(), "pods", srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFetchParseError(t *testing.T) {
	srv := serveFeed(t, "this is not a feed", http.StatusOK)
	if _, err := NewFetcher(5*time.Second).Fetch(context.Background(), "pods", srv.URL); err == nil {
		t.Error("expected parse error")
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher(time.Second).Fetch(ctx, "pods", "http://example.invalid/feed"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		ms   int64
		okay bool
	}{
		{"1800", 1800000, true},
		{"45:30", 2730000, true},
		{"01:02:03", 3723000, true},
		{" 90 ", 90000, true},
		{"12.5", 12500, true},
		{"", 0, false},
		{"0", 0, false},
		{"00:00:00", 0, false},
		{"1:2:3:4", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		ms, ok := ParseDuration(tt.in)
		if ok != tt.okay || ms != tt.ms {
			t.Errorf("ParseDuration(%q) = %d, %v; want %d, %v", tt.in, ms, ok, tt.ms, tt.okay)
		}
	}
}
