package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/queue"
)

// editorState holds the filter editor state. Row 0 is the country, then
// one row per size, then one row per age.
type editorState struct {
	draft   filters.FilterSet
	row     int
	preview *filters.Preview
}

func editorRows() int {
	return 1 + len(filters.Sizes) + len(filters.Ages)
}

// openEditor switches to the filter editor seeded with the active filters.
func (m Model) openEditor() (tea.Model, tea.Cmd) {
	draft := m.snapshot.Filters
	if !draft.IsValid() && m.filterStore != nil {
		draft = m.filterStore.Load()
	}
	if !draft.IsValid() {
		draft = draft.SetCountry(filters.Countries[0].Code)
	}
	m.editor = editorState{draft: draft}
	m.currentView = ViewFilters
	m.previewer.Request(draft)
	return m, nil
}

// handleEditorKey processes keyboard input for the filter editor.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := &m.editor
	before := e.draft

	switch {
	case key.Matches(msg, m.keys.Up):
		if e.row > 0 {
			e.row--
		}
	case key.Matches(msg, m.keys.Down):
		if e.row < editorRows()-1 {
			e.row++
		}
	case key.Matches(msg, m.keys.Left):
		if e.row == 0 {
			e.draft = e.draft.SetCountry(cycleCountry(e.draft.Country, -1))
		}
	case key.Matches(msg, m.keys.Right):
		if e.row == 0 {
			e.draft = e.draft.SetCountry(cycleCountry(e.draft.Country, 1))
		}
	case key.Matches(msg, m.keys.Toggle):
		switch {
		case e.row == 0:
			e.draft = e.draft.SetCountry(cycleCountry(e.draft.Country, 1))
		case e.row <= len(filters.Sizes):
			e.draft = e.draft.ToggleSize(filters.Sizes[e.row-1])
		default:
			e.draft = e.draft.ToggleAge(filters.Ages[e.row-1-len(filters.Sizes)])
		}
	case key.Matches(msg, m.keys.Clear):
		e.draft = filters.New(e.draft.Country, nil, nil)
	case key.Matches(msg, m.keys.Confirm):
		return m.applyEditor()
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewCards
		return m, nil
	}

	if !e.draft.Equal(before) {
		e.preview = nil
		m.previewer.Request(e.draft)
	}
	return m, nil
}

// applyEditor persists the draft and reloads the queue when it changed.
func (m Model) applyEditor() (tea.Model, tea.Cmd) {
	draft := m.editor.draft
	if !draft.IsValid() {
		return m, m.setFlash("Pick a country first", true)
	}
	m.currentView = ViewCards
	if draft.Equal(m.snapshot.Filters) && m.snapshot.State != queue.StateError {
		return m, nil
	}
	if m.filterStore != nil {
		m.filterStore.Set(draft)
	}
	m.snapshot.State = queue.StateLoading
	return m, loadCmd(m.ctx, m.queue, draft)
}

// cycleCountry returns the catalog country delta steps away from code.
func cycleCountry(code string, delta int) string {
	n := len(filters.Countries)
	idx := -1
	for i, c := range filters.Countries {
		if c.Code == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		return filters.Countries[0].Code
	}
	return filters.Countries[((idx+delta)%n+n)%n].Code
}

// renderEditor renders the filter editor with its match preview.
func (m Model) renderEditor() string {
	styles := m.theme.Styles()
	e := m.editor
	width := m.cardWidth()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Filters"))
	b.WriteString("\n\n")

	country := fmt.Sprintf("‹ %s ›", filters.CountryName(e.draft.Country))
	b.WriteString(m.renderRow(e.row == 0, "Country", country, width))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Size"))
	b.WriteString("\n")
	for i, size := range filters.Sizes {
		b.WriteString(m.renderRow(e.row == 1+i, checkbox(e.draft.HasSize(size))+" "+sizeLabel(size), "", width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("Age"))
	b.WriteString("\n")
	for i, age := range filters.Ages {
		row := 1 + len(filters.Sizes) + i
		b.WriteString(m.renderRow(e.row == row, checkbox(e.draft.HasAge(age))+" "+titleCase(age), "", width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case e.preview == nil:
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " Counting matches..."))
	case e.preview.Err != nil:
		b.WriteString(styles.WarningText.Render("Match count unavailable"))
	default:
		b.WriteString(styles.SuccessText.Render(dogCount(e.preview.Count) + " match"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("space toggle · ←/→ country · C clear · enter apply · esc cancel"))

	panel := styles.Card.Width(width).Render(b.String())
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, panel)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
