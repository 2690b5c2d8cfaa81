package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/scandesk/internal/domain"
	"github.com/mmcdole/scandesk/internal/service"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List photos in the current batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				refreshOrWarn(cmd, a)

				photos := a.engine.Snapshot().Photos
				if match != "" {
					photos = service.MatchPhotos(match, photos)
				}

				out := cmd.OutOrStdout()
				if len(photos) == 0 {
					fmt.Fprintln(out, "No photos in the current batch")
					return nil
				}

				rows := make([][]string, 0, len(photos))
				for i, name := range photos {
					rows = append(rows, []string{strconv.Itoa(i + 1), name})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Name"}, rows, []columnAlignment{alignRight, alignLeft}, terminalWidth(out)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "Only show photos fuzzily matching this text")
	return cmd
}

func newPrintCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Write a printable scan list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				refreshOrWarn(cmd, a)

				if outputPath == "" {
					return a.engine.WriteManifest(cmd.OutOrStdout())
				}

				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create scan list: %w", err)
				}
				if err := a.engine.WriteManifest(f); err != nil {
					f.Close()
					return fmt.Errorf("write scan list: %w", err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("write scan list: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scan list written to %s\n", outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldName, newName := args[0], args[1]
			return ctx.withApp(func(a *app) error {
				if err := a.engine.Refresh(cmd.Context()); err != nil {
					return err
				}

				idx := indexOf(a.engine.Snapshot().Photos, oldName)
				if idx < 0 {
					return fmt.Errorf("rename %q: %w", oldName, domain.ErrPhotoNotFound)
				}

				if err := a.engine.BeginEdit(idx); err != nil {
					return err
				}
				if err := a.engine.UpdateDraft(newName); err != nil {
					return err
				}
				if err := a.engine.CommitEdit(cmd.Context()); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a, fmt.Sprintf("Renamed %s to %s", oldName, newName))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a photo from the scanner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := confirm(cmd, fmt.Sprintf("Delete %s?", name), yes); err != nil {
				return err
			}
			return ctx.withApp(func(a *app) error {
				if err := a.engine.DeleteOne(cmd.Context(), name); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a, "Deleted "+name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newDeleteAllCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every photo in the current batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirm(cmd, "Delete all photos in the batch?", yes); err != nil {
				return err
			}
			return ctx.withApp(func(a *app) error {
				if err := a.engine.DeleteAll(cmd.Context()); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a, "Deleted all photos")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the current batch for processing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirm(cmd, "Submit the batch?", yes); err != nil {
				return err
			}
			return ctx.withApp(func(a *app) error {
				if err := a.engine.ConfirmSubmit(cmd.Context()); err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), a, "Batch submitted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// refreshOrWarn fetches the server list, falling back to the cached copy
func refreshOrWarn(cmd *cobra.Command, a *app) {
	if err := a.engine.Refresh(cmd.Context()); err != nil {
		if at, ok := a.store.SavedAt(); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: showing cached list from %s (%v)\n", at.Local().Format("2006-01-02 15:04"), err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: showing cached list (%v)\n", err)
	}
}

// printOutcome prints the server's message for the last action, or fallback
func printOutcome(w io.Writer, a *app, fallback string) {
	if n := a.engine.Snapshot().Notification; n != nil && !n.IsError && n.Text != "" {
		fmt.Fprintln(w, n.Text)
		return
	}
	fmt.Fprintln(w, fallback)
}

func indexOf(photos []string, name string) int {
	for i, p := range photos {
		if p == name {
			return i
		}
	}
	return -1
}
