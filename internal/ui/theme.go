package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Every style the UI draws with is derived from
// these color roles.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // header and command bar
	Selection  string // highlighted list row
	Border     string // card border
	Focus      string // detail card and help border

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string // likes, ready queue
	Warning string // logo, missing filters
	Danger  string // errors
	Info    string // loading, prefetch
	Offline string
}

// themes is the cycle order for the theme key. The first entry is the
// fallback for unknown names.
var themes = []Theme{
	{
		Name:       "Nightfox",
		Background: "#131a24",
		Surface:    "#192330",
		Selection:  "#2b3b51",
		Border:     "#39506d",
		Focus:      "#719cd6",
		Text:       "#cdcecf",
		Muted:      "#738091",
		Faint:      "#71839b",
		Accent:     "#719cd6",
		Success:    "#81b29a",
		Warning:    "#dbc074",
		Danger:     "#c94f6d",
		Info:       "#63cdcf",
		Offline:    "#f4a261",
	},
	{
		Name:       "Dusk",
		Background: "#1c1714",
		Surface:    "#2a221d",
		Selection:  "#4a3a2f",
		Border:     "#5c4a3d",
		Focus:      "#e0a36b",
		Text:       "#efe3d3",
		Muted:      "#b09c88",
		Faint:      "#85715f",
		Accent:     "#e0a36b",
		Success:    "#9fbf7a",
		Warning:    "#f2c46d",
		Danger:     "#e0665c",
		Info:       "#88b8c4",
		Offline:    "#d9824e",
	},
	{
		Name:       "Daylight",
		Background: "#f7f5f0",
		Surface:    "#e9e4da",
		Selection:  "#c9dcef",
		Border:     "#b8b0a2",
		Focus:      "#2f6fae",
		Text:       "#2b2926",
		Muted:      "#6b655c",
		Faint:      "#948d82",
		Accent:     "#2f6fae",
		Success:    "#3d8a4f",
		Warning:    "#a86d00",
		Danger:     "#b83a3a",
		Info:       "#1f7f8c",
		Offline:    "#c0571e",
	},
}

// GetTheme returns the theme called name, or the first theme when no theme
// has that name.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)].Name
		}
	}
	return themes[0].Name
}

// ThemeNames returns the theme names in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header    lipgloss.Style
	Logo      lipgloss.Style
	Selected  lipgloss.Style
	Card      lipgloss.Style
	FocusCard lipgloss.Style

	theme Theme
}

// Styles builds the styles for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	card := func(border string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(1, 2)
	}

	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:     fg(t.Warning).Bold(true),
		Selected: fg(t.Text).Background(lipgloss.Color(t.Selection)),

		Card:      card(t.Border),
		FocusCard: card(t.Focus),

		theme: t,
	}
}

// StatusStyle returns the header badge for a queue state name or "offline".
func (s Styles) StatusStyle(status string) lipgloss.Style {
	t := s.theme
	color := t.Muted
	switch status {
	case "needs-filters":
		color = t.Warning
	case "loading":
		color = t.Info
	case "ready":
		color = t.Success
	case "error":
		color = t.Danger
	case "offline":
		color = t.Offline
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy whose text styles carry bgColor, so segments
// joined on a bar leave no gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}
