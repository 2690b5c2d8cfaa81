package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scandesk/internal/service"
)

// actionTimeout bounds a single server action started from the UI
const actionTimeout = 30 * time.Second

// Command factories for async operations

// ListenEngineCmd waits for the next engine change signal
func ListenEngineCmd(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return EngineChangedMsg{}
	}
}

// engineActionCmd runs op against the engine off the UI goroutine
func engineActionCmd(name string, op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return ActionDoneMsg{Op: name, Err: op(ctx)}
	}
}

// CommitEditCmd saves the active rename
func CommitEditCmd(engine *service.SyncEngine) tea.Cmd {
	return engineActionCmd("rename", engine.CommitEdit)
}

// DeletePhotoCmd deletes a single photo
func DeletePhotoCmd(engine *service.SyncEngine, name string) tea.Cmd {
	return engineActionCmd("delete", func(ctx context.Context) error {
		return engine.DeleteOne(ctx, name)
	})
}

// DeleteAllCmd deletes the whole batch
func DeleteAllCmd(engine *service.SyncEngine) tea.Cmd {
	return engineActionCmd("delete all", engine.DeleteAll)
}

// SubmitCmd submits the batch
func SubmitCmd(engine *service.SyncEngine) tea.Cmd {
	return engineActionCmd("submit", engine.ConfirmSubmit)
}

// RefreshCmd reloads the photo list from the server
func RefreshCmd(engine *service.SyncEngine) tea.Cmd {
	return engineActionCmd("refresh", engine.Refresh)
}

// WriteManifestCmd prints the photo list into a timestamped file under dir
func WriteManifestCmd(engine *service.SyncEngine, dir string) tea.Cmd {
	return func() tea.Msg {
		name := fmt.Sprintf("scan-list-%s.txt", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return ManifestWrittenMsg{Err: err}
		}
		if err := engine.WriteManifest(f); err != nil {
			f.Close()
			return ManifestWrittenMsg{Path: path, Err: err}
		}
		return ManifestWrittenMsg{Path: path, Err: f.Close()}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
