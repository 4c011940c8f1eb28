package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/onboarding"
)

// onboardState holds the wizard view state.
type onboardState struct {
	flow      *onboarding.Flow
	countries []onboarding.CountryOption
	sizes     []onboarding.SizeOption
	cursor    int
	loading   bool
	err       error
}

func newOnboardState(flow *onboarding.Flow) onboardState {
	s := onboardState{flow: flow, loading: true}
	// Placeholder rows until the counts arrive.
	s.countries = make([]onboarding.CountryOption, len(filters.Countries))
	for i, c := range filters.Countries {
		s.countries[i].Country = c
		if c.Code == flow.Selection().Country {
			s.cursor = i
		}
	}
	return s
}

func (s *onboardState) applyCountries(msg countriesMsg) {
	if s.flow == nil {
		return
	}
	s.loading = false
	s.err = msg.err
	if len(msg.options) > 0 {
		s.countries = msg.options
	}
}

func (s *onboardState) applySizes(msg sizesMsg) {
	if s.flow == nil || msg.country != s.flow.Selection().Country {
		return
	}
	s.loading = false
	s.err = msg.err
	s.sizes = msg.options
}

// countryIndex returns the row of code in the country list.
func (s onboardState) countryIndex(code string) int {
	for i, c := range s.countries {
		if c.Code == code {
			return i
		}
	}
	return 0
}

// handleOnboardingKey processes keyboard input for the wizard.
func (m Model) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.onboard
	if s.flow == nil {
		return m, nil
	}

	rows := len(s.countries)
	if s.flow.Step() == onboarding.StepSize {
		rows = len(filters.Sizes)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if s.cursor < rows-1 {
			s.cursor++
		}
		return m, nil
	}

	if s.flow.Step() == onboarding.StepCountry {
		if key.Matches(msg, m.keys.Confirm) || key.Matches(msg, m.keys.Toggle) {
			if s.cursor >= len(s.countries) {
				return m, nil
			}
			code := s.countries[s.cursor].Code
			if err := s.flow.SelectCountry(code); err != nil {
				return m, m.setFlash(err.Error(), true)
			}
			s.cursor = 0
			s.sizes = nil
			s.loading = true
			s.err = nil
			return m, sizesCmd(m.ctx, s.flow, code)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if s.cursor < len(filters.Sizes) {
			s.flow.ToggleSize(filters.Sizes[s.cursor])
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		fs, err := s.flow.CompleteSelected()
		return m.finishOnboarding(fs, err)
	case key.Matches(msg, m.keys.Skip):
		fs, err := s.flow.Skip()
		return m.finishOnboarding(fs, err)
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Escape):
		s.flow.Back()
		s.cursor = s.countryIndex(s.flow.Selection().Country)
		s.err = nil
		return m, nil
	}
	return m, nil
}

func (m Model) finishOnboarding(fs filters.FilterSet, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		if errors.Is(err, onboarding.ErrCountryRequired) {
			return m, m.setFlash("Pick a country first", true)
		}
		m.log.Warn("onboarding failed", zap.Error(err))
		return m, m.setFlash("Could not save your choices", true)
	}
	m.onboard = onboardState{}
	m.currentView = ViewCards
	return m, loadCmd(m.ctx, m.queue, fs)
}

// renderOnboarding renders the current wizard step.
func (m Model) renderOnboarding() string {
	s := m.onboard
	if s.flow == nil {
		return ""
	}
	styles := m.theme.Styles()
	width := m.cardWidth()

	var b strings.Builder
	if s.flow.Step() == onboarding.StepSize {
		country := filters.CountryName(s.flow.Selection().Country)
		b.WriteString(styles.AccentText.Bold(true).Render("Step 2 of 2 · What size of dog?"))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Optional. Dogs in " + country + " by size."))
		b.WriteString("\n\n")
		for i, size := range filters.Sizes {
			mark := "[ ]"
			if s.flow.Selection().HasSize(size) {
				mark = "[x]"
			}
			count := ""
			if opt, ok := findSize(s.sizes, size); ok && opt.Known {
				count = dogCount(opt.Count)
			} else if s.loading {
				count = m.spinner.View()
			}
			b.WriteString(m.renderRow(i == s.cursor, mark+" "+padRight(sizeLabel(size), 14), count, width))
			b.WriteString("\n")
		}
		if s.err != nil {
			b.WriteString("\n")
			b.WriteString(styles.WarningText.Render("Counts unavailable, you can still choose."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("space toggle · enter done · s skip · b back"))
	} else {
		b.WriteString(styles.AccentText.Bold(true).Render("Step 1 of 2 · Where are you adopting from?"))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("We only show dogs that can be adopted into your country."))
		b.WriteString("\n\n")
		for i, opt := range s.countries {
			count := ""
			switch {
			case s.loading:
				count = m.spinner.View()
			case opt.Err != nil:
				count = "?"
			default:
				count = dogCount(opt.Count)
			}
			b.WriteString(m.renderRow(i == s.cursor, padRight(opt.Name, 24), count, width))
			b.WriteString("\n")
		}
		if s.err != nil {
			b.WriteString("\n")
			b.WriteString(styles.WarningText.Render("Couldn't reach the rescue service. Counts are missing."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("j/k move · enter choose"))
	}

	panel := styles.Card.Width(width).Render(b.String())
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, panel)
}

// renderRow renders one selectable list row.
func (m Model) renderRow(selected bool, label, detail string, width int) string {
	styles := m.theme.Styles()
	line := padRight(label, 28) + detail
	if selected {
		return styles.Selected.Width(width - 6).Render("› " + line)
	}
	return styles.Text.Render("  " + line)
}

func findSize(options []onboarding.SizeOption, size string) (onboarding.SizeOption, bool) {
	for _, opt := range options {
		if opt.Size == size {
			return opt, true
		}
	}
	return onboarding.SizeOption{}, false
}
