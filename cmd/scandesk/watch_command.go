package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// eventPrinter prints push events as they arrive. The engine is subscribed
// alongside it so the local cache follows the batch.
type eventPrinter struct {
	out io.Writer
	now func() time.Time
}

func (p eventPrinter) print(format string, args ...any) {
	fmt.Fprintf(p.out, "%s  %s\n", p.now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

func (p eventPrinter) OnPhotoAdded(name string) {
	p.print("photo added: %s", name)
}

func (p eventPrinter) OnBatchComplete(message string) {
	if message == "" {
		message = "(no message)"
	}
	p.print("batch complete: %s", message)
}

func (p eventPrinter) OnProcessingStarted() {
	p.print("processing started")
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print scanner events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				unsubscribe := a.channel.Subscribe(eventPrinter{out: cmd.OutOrStdout(), now: time.Now})
				defer unsubscribe()

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", a.channel.URL())
				err := a.channel.Run(cmd.Context())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}
