package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// handleDetailKey processes keyboard input for the detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Prev):
		m.nav.Prev()
	case key.Matches(msg, m.keys.Next):
		m.nav.Next()
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Open):
		m.currentView = ViewCards
		return m, fetchSnapshotCmd(m.queue)
	}
	return m, nil
}

// renderDetail renders the full profile of the dog the navigator is on.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	dog, ok := m.nav.Current()
	if !ok {
		return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("This dog is no longer in the queue."))
	}

	width := m.cardWidth()
	inner := width - 6
	labelStyle := styles.MutedText.Width(14)

	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return labelStyle.Render(label) + styles.Text.Render(value)
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(dog.Name))
	b.WriteString("\n\n")
	b.WriteString(field("Breed", dog.Breed) + "\n")
	b.WriteString(field("Age", titleCase(dog.Age)) + "\n")
	b.WriteString(field("Size", sizeLabel(dog.Size)) + "\n")
	b.WriteString(field("Sex", titleCase(dog.Sex)) + "\n")
	b.WriteString(field("Rescue", dog.Organization) + "\n")
	b.WriteString(field("Country", dog.Country) + "\n")
	b.WriteString(field("Profile", truncate(dog.URL, inner-14)) + "\n")
	b.WriteString(field("Photo", truncate(dog.ImageURL, inner-14)))

	if desc := strings.TrimSpace(dog.Description); desc != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(styles.Text.Render(desc)))
	}

	w := m.nav.Window()
	prev, next := "  ", "  "
	if m.nav.HasPrev() {
		prev = "‹ "
	}
	if m.nav.HasNext() {
		next = " ›"
	}
	position := fmt.Sprintf("%s%d/%d%s", prev, w.Center+1, len(w.Dogs), next)

	panel := styles.FocusCard.Width(width - 2).Render(b.String())
	footer := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(styles.MutedText.Render(position))
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, panel+"\n"+footer)
}
