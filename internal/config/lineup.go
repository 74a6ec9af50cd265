package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/channelguide/internal/schedule"
)

// Lineup is a YAML file that seeds the catalog with channels and content.
type Lineup struct {
	Channels []ChannelSpec `yaml:"channels"`
}

// ChannelSpec describes one channel in a lineup file.
type ChannelSpec struct {
	ID     string     `yaml:"id"`
	Number int        `yaml:"number"`
	Name   string     `yaml:"name"`
	Mode   string     `yaml:"mode"`   // sequential, shuffle, random
	Seed   string     `yaml:"seed"`   // integer, or "auto"/empty to derive from id+anchor
	Anchor string     `yaml:"anchor"` // RFC3339; empty means midnight UTC today
	Feed   string     `yaml:"feed"`   // optional podcast/RSS feed to import
	Items  []ItemSpec `yaml:"items"`
}

// ItemSpec is one content item in a lineup file.
type ItemSpec struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Duration string `yaml:"duration"` // Go duration, e.g. "22m30s"
}

// LoadLineup reads and validates a lineup file.
func LoadLineup(path string) (*Lineup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLineup(data)
}

// ParseLineup decodes and validates lineup YAML.
func ParseLineup(data []byte) (*Lineup, error) {
	var l Lineup
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse lineup yaml: %w", err)
	}

	seen := make(map[string]bool)
	for i, ch := range l.Channels {
		if ch.ID == "" {
			return nil, fmt.Errorf("lineup channel %d: missing id", i)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("lineup channel %s: duplicate id", ch.ID)
		}
		seen[ch.ID] = true

		if _, err := schedule.ParseMode(ch.Mode); err != nil {
			return nil, fmt.Errorf("lineup channel %s: %w", ch.ID, err)
		}
		if _, err := ch.AnchorTime(); err != nil {
			return nil, fmt.Errorf("lineup channel %s: %w", ch.ID, err)
		}
		if _, err := ch.ResolveSeed(); err != nil {
			return nil, fmt.Errorf("lineup channel %s: %w", ch.ID, err)
		}
		for _, it := range ch.Items {
			if _, err := it.DurationMs(); err != nil {
				return nil, fmt.Errorf("lineup channel %s item %s: %w", ch.ID, it.ID, err)
			}
		}
	}
	return &l, nil
}

// AnchorTime parses Anchor, defaulting to today's midnight UTC.
func (c ChannelSpec) AnchorTime() (time.Time, error) {
	if strings.TrimSpace(c.Anchor) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(time.RFC3339, c.Anchor)
	if err != nil {
		return time.Time{}, fmt.Errorf("anchor %q: %w", c.Anchor, err)
	}
	return t, nil
}

// ResolveSeed returns the numeric seed, deriving one from the channel id and
// anchor when Seed is empty or "auto".
func (c ChannelSpec) ResolveSeed() (int64, error) {
	s := strings.TrimSpace(c.Seed)
	if s == "" || strings.EqualFold(s, "auto") {
		anchor, err := c.AnchorTime()
		if err != nil {
			return 0, err
		}
		return schedule.GenerateSeed(c.ID, anchor.UnixMilli()), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w", c.Seed, err)
	}
	return n, nil
}

// DurationMs parses Duration into milliseconds. Must be positive.
func (i ItemSpec) DurationMs() (int64, error) {
	d, err := time.ParseDuration(i.Duration)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", i.Duration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", i.Duration)
	}
	return d.Milliseconds(), nil
}
