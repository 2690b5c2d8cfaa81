package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/scandesk/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for the photo list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// PhotoList is a scrollable, filterable list of photo names
type PhotoList struct {
	photos []string

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title string

	// Index of the entry under edit, -1 when none
	editing int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into photos
	matchedIdx   map[int][]int
}

// NewPhotoList creates an empty photo list
func NewPhotoList(title string) *PhotoList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &PhotoList{
		title:       title,
		filterInput: ti,
		editing:     -1,
		focused:     true,
	}
}

// SetPhotos replaces the list contents. The cursor stays on the same photo
// when it is still listed.
func (l *PhotoList) SetPhotos(photos []string) {
	current := l.SelectedName()
	hadSelection := l.ItemCount() > 0

	l.photos = append(l.photos[:0:0], photos...)
	if l.filterActive {
		l.applyFilter()
	}

	if hadSelection {
		for i := 0; i < l.ItemCount(); i++ {
			if l.photos[l.mapIndex(i)] == current {
				l.cursor = i
				l.ensureVisible()
				return
			}
		}
	}
	l.clampCursor()
}

// Photos returns the unfiltered contents
func (l *PhotoList) Photos() []string {
	return l.photos
}

// SetEditing marks the entry at raw index idx as being renamed; -1 clears it
func (l *PhotoList) SetEditing(idx int) {
	l.editing = idx
}

func (l *PhotoList) Update(msg tea.Msg) (*PhotoList, tea.Cmd) {
	if !l.focused {
		return l, nil
	}

	// Filter input has the keyboard while typing
	if l.filterActive && l.filterInput.Focused() {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(keyMsg, PhotoListKeys.Escape):
				l.clearFilter()
				return l, nil
			case key.Matches(keyMsg, PhotoListKeys.Enter):
				// Keep the results, return the keyboard to navigation
				l.filterInput.Blur()
				return l, nil
			case keyMsg.String() == "backspace" && l.filterInput.Value() == "":
				l.clearFilter()
				return l, nil
			}
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return l, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	if l.filterActive {
		switch {
		case key.Matches(keyMsg, PhotoListKeys.Escape):
			l.clearFilter()
			return l, nil
		case key.Matches(keyMsg, PhotoListKeys.Filter):
			l.filterInput.Focus()
			return l, nil
		}
	}

	count := l.ItemCount()
	if count == 0 {
		return l, nil
	}

	switch {
	case key.Matches(keyMsg, PhotoListKeys.Down):
		if l.cursor < count-1 {
			l.cursor++
			l.ensureVisible()
		}
	case key.Matches(keyMsg, PhotoListKeys.Up):
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case key.Matches(keyMsg, PhotoListKeys.Home):
		l.cursor = 0
		l.offset = 0
	case key.Matches(keyMsg, PhotoListKeys.End):
		l.cursor = count - 1
		l.ensureVisible()
	case key.Matches(keyMsg, PhotoListKeys.HalfDown):
		l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
		l.ensureVisible()
	case key.Matches(keyMsg, PhotoListKeys.HalfUp):
		l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
		l.ensureVisible()
	}

	return l, nil
}

func (l *PhotoList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

func (l *PhotoList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

func (l *PhotoList) SetFocused(focused bool) {
	l.focused = focused
}

// SelectedIndex returns the raw index of the photo under the cursor, or -1
func (l *PhotoList) SelectedIndex() int {
	if l.ItemCount() == 0 {
		return -1
	}
	return l.mapIndex(l.cursor)
}

// SelectedName returns the photo under the cursor, or ""
func (l *PhotoList) SelectedName() string {
	idx := l.SelectedIndex()
	if idx < 0 || idx >= len(l.photos) {
		return ""
	}
	return l.photos[idx]
}

// ItemCount returns the number of visible (filtered) entries
func (l *PhotoList) ItemCount() int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.photos)
}

// ToggleFilter activates the filter input
func (l *PhotoList) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *PhotoList) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (l *PhotoList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// FilterQuery returns the active filter text
func (l *PhotoList) FilterQuery() string {
	return l.filterQuery
}

// ClearFilter deactivates the filter and shows all items
func (l *PhotoList) ClearFilter() {
	l.clearFilter()
}

// Internal methods

func (l *PhotoList) recalcMaxVisible() {
	// Interior height minus title line and scroll indicators
	l.maxVisible = l.height - BorderHeight - ScrollIndicatorLines - 1
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *PhotoList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *PhotoList) clampCursor() {
	count := l.ItemCount()
	if l.cursor >= count {
		l.cursor = count - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
	l.ensureVisible()
}

func (l *PhotoList) clearFilter() {
	selected := l.SelectedIndex()

	l.filterActive = false
	l.filterQuery = ""
	l.filteredIdx = nil
	l.matchedIdx = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()

	// Stay on the photo that was selected in the filtered view
	if selected >= 0 {
		l.cursor = selected
	}
	l.clampCursor()
}

func (l *PhotoList) applyFilter() {
	query := l.filterInput.Value()
	l.filterQuery = query

	if query == "" {
		l.filteredIdx = nil
		l.matchedIdx = nil
		l.clampCursor()
		return
	}

	lower := make([]string, len(l.photos))
	for i, p := range l.photos {
		lower[i] = strings.ToLower(p)
	}

	matches := fuzzy.Find(strings.ToLower(query), lower)

	l.filteredIdx = make([]int, len(matches))
	l.matchedIdx = make(map[int][]int, len(matches))
	for i, match := range matches {
		l.filteredIdx[i] = match.Index
		l.matchedIdx[match.Index] = match.MatchedIndexes
	}

	l.cursor = 0
	l.offset = 0
}

func (l *PhotoList) mapIndex(i int) int {
	if l.filteredIdx != nil && i < len(l.filteredIdx) {
		return l.filteredIdx[i]
	}
	return i
}

// Rendering

func (l *PhotoList) renderContent() string {
	itemWidth := max(l.width-BorderWidth, 10)

	title := fmt.Sprintf("%s (%d)", l.title, len(l.photos))
	titleLine := styles.AccentStyle.Render(styles.Truncate(title, itemWidth))

	count := l.ItemCount()
	if count == 0 {
		emptyMsg := styles.DimStyle.Render("No photos yet. Waiting for the scanner...")
		if l.filterActive && l.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n \n" + emptyMsg + "\n "
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)

	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderPhotoItem(l.mapIndex(i), i == l.cursor, itemWidth))
	}

	// Reserve the indicator lines even when empty to prevent layout shifts
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

func (l *PhotoList) renderPhotoItem(idx int, selected bool, width int) string {
	number := fmt.Sprintf("%3d ", idx+1)
	name := l.photos[idx]

	var marker styles.RowPart
	if idx == l.editing {
		marker = styles.RowPart{Text: " ✎", Foreground: &styles.Amber}
	}

	nameWidth := width - lipgloss.Width(number) - lipgloss.Width(marker.Text) - 2
	name = styles.Truncate(name, nameWidth)

	parts := []styles.RowPart{{Text: number, Foreground: &styles.DimGray}}
	if positions := l.matchedIdx[idx]; len(positions) > 0 && len(name) == len(l.photos[idx]) {
		parts = append(parts, highlightMatches(name, positions)...)
	} else {
		parts = append(parts, styles.RowPart{Text: name})
	}
	if marker.Text != "" {
		parts = append(parts, marker)
	}

	return styles.RenderListRow(parts, selected, width)
}

// highlightMatches splits name into row parts with matched bytes accented
func highlightMatches(name string, positions []int) []styles.RowPart {
	matched := make(map[int]bool, len(positions))
	for _, p := range positions {
		matched[p] = true
	}

	var parts []styles.RowPart
	var run strings.Builder
	runMatched := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runMatched {
			part.Foreground = &styles.ScanTeal
			part.Bold = true
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range name {
		if matched[i] != runMatched {
			flush()
			runMatched = matched[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (l *PhotoList) renderFilterBar() string {
	countStr := ""
	if l.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.ItemCount(), len(l.photos)))
	}
	return l.filterInput.View() + countStr
}
