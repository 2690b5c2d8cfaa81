package main

import (
	"context"

	"github.com/spf13/cobra"
)

// execute runs the command tree and releases the log file whether or not
// the command failed. Cobra skips post-run hooks when RunE errors.
func execute(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext) error {
	defer cmdCtx.close()
	return cmd.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *commandContext) {
	var configFlag string
	var serverFlag string

	ctx := newCommandContext(&configFlag, &serverFlag)

	rootCmd := &cobra.Command{
		Use:           "scandesk",
		Short:         "Review, rename and submit scanned photos",
		Long:          "scandesk follows a scanning station's capture backend and lets the operator review, rename, delete and submit the current batch of scans.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Scan server URL (overrides config)")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newPrintCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newRenameCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newDeleteAllCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd, ctx
}
