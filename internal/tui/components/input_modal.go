package components

import (
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/scandesk/internal/tui/styles"
)

const renameModalWidth = 48

// InputResult reports what a key press did to the modal
type InputResult int

const (
	InputEditing InputResult = iota
	InputSubmitted
	InputCancelled
)

// InputModal edits a photo name. The cursor starts in front of the file
// extension so the common case is typing a new stem.
type InputModal struct {
	visible  bool
	title    string
	original string
	input    textinput.Model
}

func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "file name"
	ti.CharLimit = 255
	ti.Width = renameModalWidth - 4
	ti.Prompt = "› "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{input: ti}
}

// Show opens the modal on name
func (m *InputModal) Show(title, name string) {
	m.visible = true
	m.title = title
	m.original = name
	m.input.SetValue(name)
	m.input.SetCursor(len([]rune(stem(name))))
	m.input.Focus()
}

// stem is name without its extension; dotfiles keep their name
func stem(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return name[:len(name)-len(ext)]
}

func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

func (m InputModal) IsVisible() bool {
	return m.visible
}

func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events. The modal hides itself on submit or cancel.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, InputResult) {
	if !m.visible {
		return m, nil, InputEditing
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, RenameKeys.Save):
			m.Hide()
			return m, nil, InputSubmitted
		case key.Matches(keyMsg, RenameKeys.Cancel):
			m.Hide()
			return m, nil, InputCancelled
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, InputEditing
}

func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	line := lipgloss.NewStyle().Width(renameModalWidth).Background(styles.SlateDark)

	var status string
	switch value := m.input.Value(); {
	case value == "":
		status = styles.WarningStyle.Render("Empty name")
	case value == m.original:
		status = styles.DimStyle.Render("Unchanged")
	default:
		status = styles.DimStyle.Render("was " + styles.Truncate(m.original, renameModalWidth-6))
	}

	keys := styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" save  ") +
		styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" cancel")

	content := lipgloss.JoinVertical(lipgloss.Left,
		line.Inherit(styles.ModalTitleStyle).Render(m.title),
		line.Render(""),
		line.Render(m.input.View()),
		line.Render(status),
		line.Render(""),
		line.Render(keys),
	)

	return styles.ModalStyle.Render(content)
}
