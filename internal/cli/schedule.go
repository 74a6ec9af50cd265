package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/channelguide/internal/catalog"
	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/schedule"
)

// channelIndex builds the schedule index for one stored channel.
func (e *env) channelIndex(ctx context.Context, id string) (*schedule.Index, coord.Channel, error) {
	st, err := e.openStore()
	if err != nil {
		return nil, coord.Channel{}, err
	}
	res := catalog.NewResolver(st, 0, 0)

	lineup, err := res.Lineup(ctx)
	if err != nil {
		return nil, coord.Channel{}, err
	}
	for _, ch := range lineup {
		if ch.ID != id {
			continue
		}
		items, err := res.ResolveChannelContent(ctx, id)
		if err != nil {
			return nil, ch, err
		}
		idx, err := schedule.Build(schedule.Config{
			ChannelID: ch.ID,
			Items:     items,
			Mode:      ch.Mode,
			Seed:      ch.Seed,
			AnchorMs:  ch.AnchorMs,
		})
		return idx, ch, err
	}
	return nil, coord.Channel{}, fmt.Errorf("channel %s not found", id)
}

func newNowCmd(e *env) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "now <channel>",
		Short: "Show what a channel is airing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseWhen(at)
			if err != nil {
				return err
			}
			idx, ch, err := e.channelIndex(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := idx.ProgramAt(ch.AnchorMs, when.UnixMilli())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", ch.Name, titleOf(p))
			fmt.Fprintf(out, "  %s – %s   ends %s\n",
				p.Start().Local().Format("15:04:05"), p.End().Local().Format("15:04:05"),
				humanize.RelTime(p.End(), when, "ago", "from now"))
			fmt.Fprintf(out, "  elapsed %s, remaining %s, loop %d, position %d/%d\n",
				formatDuration(time.Duration(p.ElapsedMs)*time.Millisecond),
				formatDuration(time.Duration(p.RemainingMs)*time.Millisecond),
				p.LoopNumber, p.Position+1, idx.Len())

			next := idx.Next(ch.AnchorMs, p)
			fmt.Fprintf(out, "  next: %s at %s\n", titleOf(next), next.Start().Local().Format("15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Query time, RFC3339 (default: now)")
	return cmd
}

func newWindowCmd(e *env) *cobra.Command {
	var (
		hours float64
		from  string
	)
	cmd := &cobra.Command{
		Use:   "window <channel>",
		Short: "List the programs in a time window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours <= 0 {
				return fmt.Errorf("--hours must be positive")
			}
			start, err := parseWhen(from)
			if err != nil {
				return err
			}
			idx, ch, err := e.channelIndex(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			endMs := start.UnixMilli() + int64(hours*float64(time.Hour/time.Millisecond))
			w := idx.Window(ch.AnchorMs, start.UnixMilli(), endMs)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, loop %s, %d items)\n", ch.Name, ch.Mode, formatDuration(idx.LoopDuration()), idx.Len())
			for _, p := range w.Programs {
				marker := " "
				if p.IsCurrent {
					marker = "▶"
				}
				fmt.Fprintf(out, "%s %s–%s  %-8s  %s\n", marker,
					p.Start().Local().Format("15:04"), p.End().Local().Format("15:04"),
					formatDuration(p.Duration()), titleOf(p))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", 3, "Window length in hours")
	cmd.Flags().StringVar(&from, "from", "", "Window start, RFC3339 (default: now)")
	return cmd
}

func newSeedCmd(e *env) *cobra.Command {
	var (
		anchor string
		apply  bool
	)
	cmd := &cobra.Command{
		Use:   "seed <channel>",
		Short: "Derive the deterministic shuffle seed for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			at, err := parseAnchor(anchor)
			if err != nil {
				return err
			}
			if anchor == "" && apply {
				st, err := e.openStore()
				if err != nil {
					return err
				}
				ch, err := st.GetChannel(id)
				if err != nil {
					return err
				}
				at = time.UnixMilli(ch.AnchorMs)
			}

			seed := schedule.GenerateSeed(id, at.UnixMilli())
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", seed)

			if !apply {
				return nil
			}
			st, err := e.openStore()
			if err != nil {
				return err
			}
			ch, err := st.GetChannel(id)
			if err != nil {
				return err
			}
			return st.SetPlayback(id, ch.Mode, seed)
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "Anchor, RFC3339 (default: today 00:00 UTC, or the stored anchor with --apply)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Store the seed on the channel")
	return cmd
}

func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", s, err)
	}
	return t, nil
}

func titleOf(p schedule.Program) string {
	if p.Item.Title != "" {
		return p.Item.Title
	}
	return p.Item.ID
}
