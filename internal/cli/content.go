package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/channelguide/internal/catalog"
	"github.com/abelbrown/channelguide/internal/config"
	"github.com/abelbrown/channelguide/internal/fetch"
)

func newImportCmd(e *env) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "import <channel> <feed-url>",
		Short: "Append a podcast/RSS feed's episodes to a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore()
			if err != nil {
				return err
			}
			res, err := catalog.ImportFeed(cmd.Context(), st, fetch.NewFetcher(timeout), nil, args[0], args[1])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s new episodes from %q (%s skipped without duration, %s total)\n",
				humanize.Comma(int64(res.Added)), res.FeedTitle,
				humanize.Comma(int64(res.Skipped)), humanize.Comma(int64(res.Total)))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP timeout")
	return cmd
}

func newLineupCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineup",
		Short: "Seed the catalog from a lineup file",
	}

	var fetchFeeds bool
	load := &cobra.Command{
		Use:   "load <file>",
		Short: "Write every channel in a YAML lineup to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := config.LoadLineup(args[0])
			if err != nil {
				return err
			}
			st, err := e.openStore()
			if err != nil {
				return err
			}
			n, err := catalog.ApplyLineup(st, l)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d channels from %s\n", n, args[0])

			if !fetchFeeds {
				return nil
			}
			f := fetch.NewFetcher(30 * time.Second)
			for _, ch := range l.Channels {
				if ch.Feed == "" {
					continue
				}
				res, err := catalog.ImportFeed(cmd.Context(), st, f, nil, ch.ID, ch.Feed)
				if err != nil {
					fmt.Fprintf(out, "  %s: %v\n", ch.ID, err)
					continue
				}
				fmt.Fprintf(out, "  %s: %d new episodes from %q\n", ch.ID, res.Added, res.FeedTitle)
			}
			return nil
		},
	}
	load.Flags().BoolVar(&fetchFeeds, "fetch", false, "Also import each channel's feed")
	cmd.AddCommand(load)
	return cmd
}
