package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/scandesk/internal/adapter"
	"github.com/mmcdole/scandesk/internal/scanserver"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigSetServerCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.Path()
			if source == "" {
				source = "(defaults)"
			}
			fmt.Fprintf(out, "Config path: %s\n", source)
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, configRows(cfg), nil, terminalWidth(out)))
			return nil
		},
	}
}

func configRows(cfg *adapter.Config) [][]string {
	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	return [][]string{
		{"server.url", cfg.Server.URL},
		{"server.events_path", cfg.Server.EventsPath},
		{"server.timeout", cfg.Server.Timeout.String()},
		{"cache.dir", orNone(cfg.Cache.Dir)},
		{"notifications.ttl", cfg.Notifications.TTL.String()},
		{"channel.reconnect_delay", cfg.Channel.ReconnectDelay.String()},
		{"channel.ping_period", cfg.Channel.PingPeriod.String()},
		{"sync.rename_rollback", strconv.FormatBool(cfg.Sync.RenameRollback)},
		{"ui.language", cfg.UI.Language},
		{"logging.file", orNone(cfg.Logging.File)},
		{"logging.level", cfg.Logging.Level},
	}
}

func newConfigSetServerCommand(ctx *commandContext) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "set-server URL",
		Short: "Save the scan server URL to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			updated := *cfg
			updated.Server.URL = strings.TrimSpace(args[0])
			if err := updated.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !skipCheck {
				result, err := scanserver.Probe(cmd.Context(), updated.Server.URL, ctx.logger)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: server not reachable, saving anyway (%v)\n", err)
				} else {
					fmt.Fprintf(out, "Server reachable: %d photos in batch (%s)\n", result.PhotoCount, result.Latency.Round(time.Millisecond))
				}
			}

			target := cfg.Path()
			if target == "" && ctx.configFlag != nil {
				target = strings.TrimSpace(*ctx.configFlag)
			}
			if err := adapter.SaveConfig(&updated, target); err != nil {
				return err
			}

			fmt.Fprintf(out, "Server set to %s (%s)\n", updated.Server.URL, updated.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Save without contacting the server")
	return cmd
}
