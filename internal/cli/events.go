package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/channelguide/internal/otel"
)

func newEventsCmd(e *env) *cobra.Command {
	var (
		file    string
		kind    string
		level   string
		channel string
		run     string
		tail    int
		rawJSON bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent refresh events from the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = e.cfg.EventLog
			}
			if path == "" {
				return fmt.Errorf("no event log configured")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open event log: %w (run the guide first to generate events)", err)
			}
			defer f.Close()

			events, skipped, err := otel.ReadEvents(f, otel.Filter{Channel: channel, RunID: run})
			if err != nil {
				return fmt.Errorf("read event log: %w", err)
			}

			minLevel := levelRank(level)
			var matched []otel.Event
			for _, ev := range events {
				if kind != "" && !strings.HasPrefix(string(ev.Kind), kind) {
					continue
				}
				if level != "" && levelRank(string(ev.Level)) < minLevel {
					continue
				}
				matched = append(matched, ev)
			}
			if tail > 0 && len(matched) > tail {
				matched = matched[len(matched)-tail:]
			}

			out := cmd.OutOrStdout()
			for _, ev := range matched {
				if rawJSON {
					data, err := json.Marshal(ev)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					continue
				}
				fmt.Fprintln(out, formatEvent(ev))
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed lines skipped\n", skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Event log (default from config)")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by event kind prefix (e.g. 'refresh')")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&channel, "channel", "", "Filter by channel id")
	cmd.Flags().StringVar(&run, "run", "", "Filter by refresh run id")
	cmd.Flags().IntVar(&tail, "tail", 50, "Number of recent events to show (0 for all)")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Output JSON lines")
	return cmd
}

func formatEvent(ev otel.Event) string {
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-22s", ev.Time.Local().Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.RunID != "" {
		rid := ev.RunID
		if len(rid) > 8 {
			rid = rid[:8]
		}
		parts = append(parts, "rid="+rid)
	}
	if ev.Gen > 0 {
		parts = append(parts, fmt.Sprintf("gen=%d", ev.Gen))
	}
	if ev.Channel != "" {
		parts = append(parts, "ch="+ev.Channel)
	}
	if ev.Reason != "" {
		parts = append(parts, "reason="+ev.Reason)
	}
	if ev.Msg != "" {
		parts = append(parts, ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}
