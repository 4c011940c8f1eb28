package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pawswipe/internal/onboarding"
	"github.com/five82/pawswipe/internal/queue"
)

// renderHeader renders the status bar: filters, remaining dogs and queue
// state.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render("pawswipe", styles.Logo)}

	if m.currentView == ViewOnboarding {
		parts = append(parts, bg.Render("Welcome", styles.Text))
		return bg.Join(parts, "  ")
	}

	// Queue state badge
	status := snap.State.String()
	if snap.IsOffline() {
		status = "offline"
	}
	parts = append(parts, styles.StatusStyle(status).Render(strings.ToUpper(status)))

	// Filters
	label := "Filters:"
	if compact {
		label = "F:"
	}
	parts = append(parts,
		bg.Render(label, styles.MutedText)+bg.Space()+bg.Render(snap.Filters.String(), styles.Text))

	// Remaining count
	remaining := fmt.Sprintf("%d", snap.Remaining())
	if !snap.Exhausted && snap.State == queue.StateReady {
		remaining += "+"
	}
	remainingStyle := styles.Text
	if snap.Remaining() == 0 {
		remainingStyle = styles.WarningText
	}
	parts = append(parts,
		bg.Render("Left:", styles.MutedText)+bg.Space()+bg.Render(remaining, remainingStyle))

	if snap.Prefetching {
		parts = append(parts, bg.Render("fetching", styles.InfoText))
	}

	if timeStr := m.formatTimestamp(); timeStr != "" && !compact {
		parts = append(parts, bg.Render(timeStr, styles.MutedText))
	}

	// Error indicator
	if snap.LastError != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render(classifyConnectionError(snap.LastError), styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), maxErr), styles.DangerText))
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats the last queue update with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	timeSince := time.Since(m.lastUpdated)
	timeStr := m.lastUpdated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// classifyConnectionError returns a short description of a fetch error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewOnboarding:
		if m.onboard.flow != nil && m.onboard.flow.Step() == onboarding.StepSize {
			commands = []cmd{
				{"j/k", "Navigate"},
				{"space", "Toggle"},
				{"enter", "Done"},
				{"s", "Skip"},
				{"b", "Back"},
			}
		} else {
			commands = []cmd{
				{"j/k", "Navigate"},
				{"enter", "Choose"},
			}
		}
	case ViewDetail:
		commands = []cmd{
			{"h", "Prev"},
			{"l", "Next"},
			{"esc", "Back"},
		}
	case ViewFilters:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"space", "Toggle"},
			{"C", "Clear"},
			{"enter", "Apply"},
			{"esc", "Cancel"},
		}
	default: // ViewCards
		commands = []cmd{
			{"←", "Pass"},
			{"→", "Like"},
			{"enter", "Details"},
			{"f", "Filters"},
		}
		if m.snapshot.State == queue.StateError || m.snapshot.State == queue.StateEmpty {
			commands = append(commands, cmd{"r", "Retry"})
		}
	}
	commands = append(commands, cmd{"?", "More"})

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	if m.flash != "" {
		flashStyle := styles.SuccessText
		if m.flashError {
			flashStyle = styles.DangerText
		}
		segments = append(segments, bg.Render(truncate(m.flash, 60), flashStyle))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
