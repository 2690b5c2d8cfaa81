package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/scandesk/internal/service"
	"github.com/mmcdole/scandesk/internal/tui"
)

func runTUI(cmd *cobra.Command, ctx *commandContext) error {
	observer := tui.NewChannelObserver()
	a, err := ctx.openApp(service.WithObserver(observer))
	if err != nil {
		return err
	}
	defer a.Close()

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a.startChannel(runCtx)

	// Initial fetch runs in the background; the cached list shows first
	go func() {
		a.engine.Refresh(runCtx)
	}()

	manifestDir, err := os.Getwd()
	if err != nil {
		manifestDir = "."
	}

	model := tui.NewModel(a.engine, observer, tui.Options{
		ServerURL:   a.cfg.Server.URL,
		ManifestDir: manifestDir,
		Logger:      a.logger,
	})

	a.logger.Info("starting scandesk", "server", a.cfg.Server.URL, "version", Version)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
	if _, err := p.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
