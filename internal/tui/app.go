package tui

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scandesk/internal/domain"
	"github.com/mmcdole/scandesk/internal/service"
	"github.com/mmcdole/scandesk/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateEditing
	StateHelp
	StateConfirm
)

// ConfirmKind identifies the destructive action awaiting confirmation
type ConfirmKind int

const (
	ConfirmDeletePhoto ConfirmKind = iota
	ConfirmDeleteAll
	ConfirmSubmit
)

// pendingConfirm is a destructive action waiting for y/n
type pendingConfirm struct {
	Kind ConfirmKind
	Name string // photo name for ConfirmDeletePhoto
}

// Vertical layout: header line + footer line
const ChromeHeight = 2

// Options configures the model
type Options struct {
	ServerURL   string // shown in the header
	ManifestDir string // where printed photo lists are written
	Logger      *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	Engine  *service.SyncEngine
	changes <-chan struct{}
	logger  *slog.Logger

	// UI Components
	List   *components.PhotoList
	Rename components.InputModal

	// Latest engine state
	Snap domain.Snapshot

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	InFlight     int // server actions started from the UI and not yet done
	SpinnerFrame int

	pending     *pendingConfirm
	serverURL   string
	manifestDir string
}

// NewModel creates a new application model. observer must be the observer
// the engine was built with.
func NewModel(engine *service.SyncEngine, observer *ChannelObserver, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manifestDir := opts.ManifestDir
	if manifestDir == "" {
		manifestDir = "."
	}

	m := Model{
		State:       StateBrowsing,
		Engine:      engine,
		changes:     observer.Changes(),
		logger:      logger,
		List:        components.NewPhotoList("Scans"),
		Rename:      components.NewInputModal(),
		serverURL:   opts.ServerURL,
		manifestDir: manifestDir,
	}
	m.syncSnapshot()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenEngineCmd(m.changes),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case EngineChangedMsg:
		m.syncSnapshot()
		return m, ListenEngineCmd(m.changes)

	case ActionDoneMsg:
		if m.InFlight > 0 {
			m.InFlight--
		}
		if msg.Err != nil {
			// Already shown to the operator as an engine notification
			m.logger.Debug("ui action failed", "op", msg.Op, "error", msg.Err)
		}
		return m, nil

	case ManifestWrittenMsg:
		if msg.Err != nil {
			m.logger.Error("failed to write scan list", "error", msg.Err, "path", msg.Path)
			return m.setStatus(fmt.Sprintf("Print failed: %v", msg.Err), true)
		}
		m.logger.Info("scan list written", "path", msg.Path)
		return m.setStatus("Scan list written to "+msg.Path, false)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// syncSnapshot re-reads the engine state into the model
func (m *Model) syncSnapshot() {
	m.Snap = m.Engine.Snapshot()
	m.List.SetPhotos(m.Snap.Photos)

	if m.Snap.Edit != nil {
		m.List.SetEditing(m.Snap.Edit.Index)
	} else {
		m.List.SetEditing(-1)
		// The session was dropped under us (list shrank, batch cleared)
		if m.State == StateEditing {
			m.Rename.Hide()
			m.State = StateBrowsing
		}
	}
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(3 * time.Second)
}

// startAction counts a server action as in flight and returns its command
func (m *Model) startAction(cmd tea.Cmd) tea.Cmd {
	m.InFlight++
	return cmd
}

// updateLayout sizes the list to the terminal
func (m *Model) updateLayout() {
	m.List.SetSize(m.Width, max(m.Height-ChromeHeight, 3))
}

// Viewing reports whether the viewer panel is open
func (m Model) Viewing() bool {
	return m.Snap.Selected != ""
}
