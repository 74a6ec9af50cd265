// Package cli implements guidectl, the catalog and schedule admin tool.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/channelguide/internal/config"
	"github.com/abelbrown/channelguide/internal/logging"
	"github.com/abelbrown/channelguide/internal/store"
)

// env is shared by every subcommand of one invocation.
type env struct {
	flagConfig   string
	flagDB       string
	flagLogLevel string

	cfg   *config.Config
	store *store.Store
}

// NewRootCmd creates the root cobra command for guidectl.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "guidectl",
		Short: "Manage channelguide channels, content and schedules",
		Long:  "guidectl edits the channel catalog, imports content, and inspects the schedules the guide shows.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := e.flagConfig
			if path == "" {
				path = config.ConfigPath()
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if e.flagDB != "" {
				cfg.DBPath = e.flagDB
			}
			if e.flagLogLevel != "" {
				cfg.Log.Level = e.flagLogLevel
			}
			e.cfg = cfg
			logging.InitWithWriter(cmd.ErrOrStderr(), cfg.Log.Level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.store != nil {
				e.store.Close()
				e.store = nil
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&e.flagConfig, "config", "", "Config file (default ~/.channelguide/config.json)")
	root.PersistentFlags().StringVar(&e.flagDB, "db", "", "Catalog database (or CHANNELGUIDE_DB env)")
	root.PersistentFlags().StringVar(&e.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newChannelsCmd(e),
		newImportCmd(e),
		newLineupCmd(e),
		newNowCmd(e),
		newWindowCmd(e),
		newSeedCmd(e),
		newEventsCmd(e),
	)

	return root
}

// openStore opens the catalog once per invocation.
func (e *env) openStore() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	st, err := store.Open(e.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", e.cfg.DBPath, err)
	}
	e.store = st
	return st, nil
}
