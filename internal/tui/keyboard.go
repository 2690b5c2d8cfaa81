package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scandesk/internal/tui/components"
)

// handleKeyMsg routes key presses based on the current state
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirm:
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m.runPending()
		case key.Matches(msg, Keys.Deny):
			m.pending = nil
			m.State = StateBrowsing
		}
		return m, nil

	case StateEditing:
		return m.handleRenameKey(msg)
	}

	if m.Viewing() {
		if key.Matches(msg, Keys.Escape, Keys.View, Keys.Quit) {
			m.Engine.CloseViewer()
			m.syncSnapshot()
		}
		return m, nil
	}

	// Filter input owns the keyboard while typing
	if m.List.IsFilterTyping() {
		var cmd tea.Cmd
		m.List, cmd = m.List.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if m.List.IsFiltering() {
			var cmd tea.Cmd
			m.List, cmd = m.List.Update(msg)
			return m, cmd
		}
		m.List.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		cmd := m.startAction(RefreshCmd(m.Engine))
		return m, cmd

	case key.Matches(msg, Keys.Edit):
		return m.beginRename()

	case key.Matches(msg, Keys.View):
		if name := m.List.SelectedName(); name != "" {
			m.Engine.SelectPhoto(name)
			m.syncSnapshot()
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if m.List.SelectedIndex() < 0 {
			return m, nil
		}
		return m.askConfirm(ConfirmDeletePhoto, m.List.SelectedName())

	case key.Matches(msg, Keys.DeleteAll):
		return m.askConfirm(ConfirmDeleteAll, "")

	case key.Matches(msg, Keys.Submit):
		return m.askConfirm(ConfirmSubmit, "")

	case key.Matches(msg, Keys.Print):
		return m, WriteManifestCmd(m.Engine, m.manifestDir)
	}

	// Navigation and filter keys go to the list
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

// beginRename opens an edit session on the photo under the cursor
func (m Model) beginRename() (tea.Model, tea.Cmd) {
	idx := m.List.SelectedIndex()
	if idx < 0 {
		return m, nil
	}
	if err := m.Engine.BeginEdit(idx); err != nil {
		m.logger.Warn("cannot edit photo", "index", idx, "error", err)
		return m.setStatus("Photo is no longer listed", true)
	}
	m.syncSnapshot()
	if m.Snap.Edit == nil {
		return m, nil
	}

	m.Rename.Show("Rename photo", m.Snap.Edit.Draft)
	m.State = StateEditing
	return m, nil
}

// handleRenameKey feeds the rename modal and mirrors the draft into the engine
func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.Rename.Value()

	var cmd tea.Cmd
	var result components.InputResult
	m.Rename, cmd, result = m.Rename.Update(msg)

	if value := m.Rename.Value(); value != before || result == components.InputSubmitted {
		if err := m.Engine.UpdateDraft(value); err != nil {
			// Session dropped by a concurrent list change
			m.Rename.Hide()
			m.State = StateBrowsing
			m.syncSnapshot()
			return m.setStatus("Photo is no longer listed", true)
		}
	}

	switch result {
	case components.InputSubmitted:
		m.State = StateBrowsing
		cmd := m.startAction(CommitEditCmd(m.Engine))
		return m, cmd
	case components.InputCancelled:
		m.Engine.CancelEdit()
		m.State = StateBrowsing
		m.syncSnapshot()
		return m, nil
	}
	return m, cmd
}

func (m Model) askConfirm(kind ConfirmKind, name string) (tea.Model, tea.Cmd) {
	m.pending = &pendingConfirm{Kind: kind, Name: name}
	m.State = StateConfirm
	return m, nil
}

// runPending starts the confirmed destructive action
func (m Model) runPending() (tea.Model, tea.Cmd) {
	p := m.pending
	m.pending = nil
	m.State = StateBrowsing
	if p == nil {
		return m, nil
	}

	switch p.Kind {
	case ConfirmDeletePhoto:
		cmd := m.startAction(DeletePhotoCmd(m.Engine, p.Name))
		return m, cmd
	case ConfirmDeleteAll:
		cmd := m.startAction(DeleteAllCmd(m.Engine))
		return m, cmd
	case ConfirmSubmit:
		cmd := m.startAction(SubmitCmd(m.Engine))
		return m, cmd
	}
	return m, nil
}
