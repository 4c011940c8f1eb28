package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/queue"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/swipe"
)

// handleCardKey processes keyboard input for the swipe card view.
func (m Model) handleCardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.EditFilters):
		return m.openEditor()

	case key.Matches(msg, m.keys.Retry):
		if m.snapshot.State == queue.StateNeedsFilters {
			return m.openEditor()
		}
		return m, retryCmd(m.ctx, m.queue)

	case key.Matches(msg, m.keys.Compact):
		m.prefs.CompactCards = !m.prefs.CompactCards
		m.savePrefs()
		return m, nil
	}

	dog, ok := m.snapshot.Current()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reject):
		m.tap.Reset()
		return m, decideCmd(m.ctx, m.handler, swipe.Gesture{DogID: dog.ID, Direction: swipe.Reject})

	case key.Matches(msg, m.keys.Accept):
		m.tap.Reset()
		return m, decideCmd(m.ctx, m.handler, swipe.Gesture{DogID: dog.ID, Direction: swipe.Accept})

	case key.Matches(msg, m.keys.Open):
		action, seq := m.tap.Tap(dog.ID)
		if action == swipe.TapAccept {
			return m, decideCmd(m.ctx, m.handler, swipe.Gesture{DogID: dog.ID, Direction: swipe.Accept})
		}
		return m, tapResolveCmd(m.tap.Window(), seq)
	}

	return m, nil
}

// handleDecided reacts to a committed (or refused) decision.
func (m Model) handleDecided(msg decidedMsg) (tea.Model, tea.Cmd) {
	refresh := fetchSnapshotCmd(m.queue)
	switch {
	case errors.Is(msg.err, swipe.ErrBusy), errors.Is(msg.err, swipe.ErrStale), errors.Is(msg.err, swipe.ErrEmpty):
		return m, refresh
	case msg.err != nil:
		m.log.Warn("decision failed", zap.Error(msg.err))
		return m, tea.Batch(refresh, m.setFlash("Decision failed", true))
	}

	out := msg.outcome
	name := dogName(out.Dog)
	if out.Direction != swipe.Accept {
		return m, tea.Batch(refresh, m.setFlash(fmt.Sprintf("Passed on %s", name), false))
	}
	return m, tea.Batch(refresh, m.setFlash(fmt.Sprintf("Liked %s", name), false), waitFavoriteCmd(out))
}

// handleFavorite reports a favorite write that failed after the card moved on.
func (m Model) handleFavorite(msg favoriteMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		return m, nil
	}
	return m, m.setFlash(fmt.Sprintf("Liked %s, but the favorite could not be saved", dogName(msg.dog)), true)
}

func dogName(dog rescue.Dog) string {
	if dog.Name == "" {
		return dog.ID.String()
	}
	return dog.Name
}

// openDetail switches to the detail view for the dog at the cursor.
func (m *Model) openDetail() {
	dog, ok := m.snapshot.Current()
	if !ok {
		return
	}
	if _, ok := m.nav.Open(dog.ID, m.snapshot.Filters); !ok {
		return
	}
	m.handler.Expanded(dog.ID)
	m.currentView = ViewDetail
}

// renderCards renders the swipe view for the current queue state.
func (m Model) renderCards() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	var body string
	switch snap.State {
	case queue.StateNeedsFilters:
		body = m.renderMessage("Choose a country to start swiping.",
			styles.MutedText.Render("Press f to pick filters."))
	case queue.StateLoading:
		body = m.renderMessage(m.spinner.View()+" Fetching dogs...", "")
	case queue.StateEmpty:
		body = m.renderMessage("No more dogs match these filters.",
			styles.MutedText.Render("Press f to widen the search or r to check again."))
	case queue.StateError:
		headline := "Couldn't load dogs."
		if snap.IsOffline() {
			headline = "The rescue service looks offline."
		}
		detail := ""
		if snap.LastError != nil {
			detail = styles.DangerText.Render(truncate(snap.LastError.Error(), CardMaxWidth))
		}
		body = m.renderMessage(headline, joinNonEmpty("\n", detail,
			styles.MutedText.Render("Press r to retry. Retrying in the background.")))
	default:
		dog, ok := snap.Current()
		if !ok {
			body = m.renderMessage(m.spinner.View()+" Fetching more dogs...", "")
			break
		}
		body = m.renderCard(dog, snap.Upcoming(2))
	}

	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, body)
}

// renderMessage renders a centered headline with optional detail.
func (m Model) renderMessage(headline, detail string) string {
	styles := m.theme.Styles()
	text := styles.Text.Bold(true).Render(headline)
	if detail != "" {
		text += "\n\n" + detail
	}
	return lipgloss.NewStyle().Width(m.cardWidth()).Align(lipgloss.Center).Render(text)
}

// renderCard renders one dog with a peek at the next ones.
func (m Model) renderCard(dog rescue.Dog, next []rescue.Dog) string {
	styles := m.theme.Styles()
	width := m.cardWidth()
	inner := width - 6 // border + padding

	var b strings.Builder
	name := dog.Name
	if name == "" {
		name = "Unnamed"
	}
	b.WriteString(styles.AccentText.Bold(true).Render(name))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(joinNonEmpty(" · ", dog.Breed, titleCase(dog.Age), sizeLabel(dog.Size), titleCase(dog.Sex))))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(joinNonEmpty(" · ", dog.Organization, dog.Country)))

	if !m.prefs.CompactCards && strings.TrimSpace(dog.Description) != "" {
		desc := lipgloss.NewStyle().Width(inner).Render(strings.TrimSpace(dog.Description))
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render(truncateLines(desc, CardDescriptionLines)))
	}
	if dog.ImageURL != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.FaintText.Render(truncate(dog.ImageURL, inner)))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.DangerText.Render("← pass"))
	b.WriteString(styles.FaintText.Render(strings.Repeat(" ", max(inner-15, 1))))
	b.WriteString(styles.SuccessText.Render("like →"))

	card := styles.FocusCard.Width(width - 2).Render(b.String())

	if len(next) == 0 {
		return card
	}
	names := make([]string, 0, len(next))
	for _, d := range next {
		names = append(names, d.Name)
	}
	return card + "\n" + styles.FaintText.Render("Up next: "+truncate(strings.Join(names, ", "), width))
}

// cardWidth returns the card width for the current terminal.
func (m Model) cardWidth() int {
	return max(min(m.width-4, CardMaxWidth), 20)
}
