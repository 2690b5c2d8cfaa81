package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/scandesk/internal/tui/styles"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)])
}

func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirm:
		return m.renderConfirmation()
	}

	if m.Viewing() {
		return m.renderViewer()
	}

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.List.View(),
		m.renderFooter(),
	)

	if m.Rename.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Rename.View())
	}
	return view
}

// renderHeader shows the server and the capture backend's batch state
func (m Model) renderHeader() string {
	left := styles.TitleStyle.Render("scandesk")
	if m.serverURL != "" {
		left += styles.DimStyle.Render("  " + m.serverURL)
	}

	var right string
	switch {
	case m.Snap.Processing:
		right = RenderSpinner(m.SpinnerFrame) + " " + styles.WarningStyle.Render("Processing scans...")
	case m.Snap.BatchMessage != "":
		right = styles.SuccessStyle.Render(m.Snap.BatchMessage)
	}

	return joinEnds(left, right, m.Width)
}

// renderFooter renders a single-line footer: notification or status on the
// left, key hints on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Snap.Notification != nil:
		n := m.Snap.Notification
		left = styles.NotificationStyle(n.IsError).Render(n.Text)
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	case m.InFlight > 0:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Working...")
	}

	hints := []string{
		hint("e", "rename"),
		hint("x", "delete"),
		hint("S", "submit"),
		hint("?", "help"),
	}
	right := strings.Join(hints, "  ")

	return joinEnds(left, right, m.Width)
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// joinEnds places left and right at opposite ends of a width-wide line
func joinEnds(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderViewer renders the full-size view of the selected photo
func (m Model) renderViewer() string {
	name := m.Snap.Selected
	url := m.Engine.ViewerURL(name)
	if url == "" {
		url = "(no image link available)"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(name),
		styles.SubtitleStyle.Render("Open in a browser:"),
		styles.AccentStyle.Render(url),
		"",
		styles.DimStyle.Render("esc / enter close"),
	)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      BATCH
  j/k        Up/down               e      Rename photo
  g/G        First/last photo      x      Delete photo
  Ctrl+u/d   Scroll half page      D      Delete all
  /          Filter                S      Submit batch
  Enter      View photo            r      Refresh from server
                                   p      Print scan list
OTHER
  Esc        Close / Cancel        q      Quit
  ?          This help

Press ? or esc to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderConfirmation renders the y/n modal for the pending destructive action
func (m Model) renderConfirmation() string {
	if m.pending == nil {
		return ""
	}

	var title, detail string
	switch m.pending.Kind {
	case ConfirmDeletePhoto:
		title = "Delete photo?"
		detail = m.pending.Name
	case ConfirmDeleteAll:
		title = "Delete all photos?"
		detail = fmt.Sprintf("%d photos will be removed from the scanner.", len(m.Snap.Photos))
	case ConfirmSubmit:
		title = "Submit batch?"
		detail = fmt.Sprintf("%d photos will be sent for processing.", len(m.Snap.Photos))
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		styles.ModalTitleStyle.Render(title),
		styles.SubtitleStyle.Render(detail),
		"",
		styles.HelpKeyStyle.Render("[Y]")+" Yes      "+styles.HelpKeyStyle.Render("[N]")+" No",
	)

	style := styles.ModalStyle
	if m.pending.Kind != ConfirmSubmit {
		style = styles.DangerModalStyle
	}

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		style.Render(body))
}
