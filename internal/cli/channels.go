package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/channelguide/internal/schedule"
	"github.com/abelbrown/channelguide/internal/store"
)

func newChannelsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Add, list and configure channels",
	}
	cmd.AddCommand(
		newChannelsAddCmd(e),
		newChannelsListCmd(e),
		newChannelsModeCmd(e),
		newChannelsRemoveCmd(e),
	)
	return cmd
}

func newChannelsAddCmd(e *env) *cobra.Command {
	var (
		number int
		name   string
		mode   string
		seed   string
		anchor string
		feed   string
	)
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			m, err := schedule.ParseMode(mode)
			if err != nil {
				return err
			}
			at, err := parseAnchor(anchor)
			if err != nil {
				return err
			}
			s, err := parseSeed(seed, id, at)
			if err != nil {
				return err
			}
			if name == "" {
				name = id
			}

			st, err := e.openStore()
			if err != nil {
				return err
			}
			if err := st.UpsertChannel(store.Channel{
				ID:       id,
				Number:   number,
				Name:     name,
				Mode:     m.String(),
				Seed:     s,
				AnchorMs: at.UnixMilli(),
				FeedURL:  feed,
			}); err != nil {
				return fmt.Errorf("save channel: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Channel %s saved (%s, seed %d, anchor %s)\n", id, m, s, at.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().IntVar(&number, "number", 0, "Channel number shown in the guide")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: id)")
	cmd.Flags().StringVar(&mode, "mode", "sequential", "Playback mode: sequential, shuffle, random")
	cmd.Flags().StringVar(&seed, "seed", "auto", "Shuffle seed, or auto to derive from id and anchor")
	cmd.Flags().StringVar(&anchor, "anchor", "", "Schedule anchor, RFC3339 (default: today 00:00 UTC)")
	cmd.Flags().StringVar(&feed, "feed", "", "Podcast/RSS feed the channel imports from")
	return cmd
}

func newChannelsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore()
			if err != nil {
				return err
			}
			channels, err := st.ListChannels()
			if err != nil {
				return fmt.Errorf("list channels: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(channels) == 0 {
				fmt.Fprintln(out, "No channels found.")
				return nil
			}

			fmt.Fprintf(out, "%-4s  %-16s  %-24s  %-10s  %6s  %10s  %s\n", "NUM", "ID", "NAME", "MODE", "ITEMS", "LOOP", "UPDATED")
			fmt.Fprintf(out, "%-4s  %-16s  %-24s  %-10s  %6s  %10s  %s\n", "---", "--", "----", "----", "-----", "----", "-------")
			for _, ch := range channels {
				count, totalMs, err := st.CountContent(ch.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-4d  %-16s  %-24s  %-10s  %6s  %10s  %s\n",
					ch.Number, truncate(ch.ID, 16), truncate(ch.Name, 24), ch.Mode,
					humanize.Comma(int64(count)), formatDuration(time.Duration(totalMs)*time.Millisecond),
					humanize.Time(ch.Updated))
			}
			return nil
		},
	}
}

func newChannelsModeCmd(e *env) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "mode <id> <sequential|shuffle|random>",
		Short: "Change a channel's playback mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			m, err := schedule.ParseMode(args[1])
			if err != nil {
				return err
			}
			st, err := e.openStore()
			if err != nil {
				return err
			}
			ch, err := st.GetChannel(id)
			if err != nil {
				return err
			}

			s := ch.Seed
			if seed != "" {
				if s, err = parseSeed(seed, id, time.UnixMilli(ch.AnchorMs)); err != nil {
					return err
				}
			}
			if err := st.SetPlayback(id, m.String(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Channel %s now %s (seed %d)\n", id, m, s)
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "New seed, or auto to derive from id and anchor (default: keep)")
	return cmd
}

func newChannelsRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a channel and its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore()
			if err != nil {
				return err
			}
			if err := st.DeleteChannel(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Channel %s removed\n", args[0])
			return nil
		},
	}
}

// parseAnchor parses an RFC3339 anchor; empty means today 00:00 UTC.
func parseAnchor(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("anchor %q: %w", s, err)
	}
	return t, nil
}

// parseSeed accepts an integer or "auto".
func parseSeed(s, channelID string, anchor time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return schedule.GenerateSeed(channelID, anchor.UnixMilli()), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w", s, err)
	}
	return n, nil
}
