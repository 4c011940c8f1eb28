package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/navcache"
	"github.com/five82/pawswipe/internal/onboarding"
	"github.com/five82/pawswipe/internal/prefs"
	"github.com/five82/pawswipe/internal/preload"
	"github.com/five82/pawswipe/internal/queue"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
	"github.com/five82/pawswipe/internal/swipe"
	"github.com/five82/pawswipe/internal/telemetry"
)

// View represents the current active view.
type View int

const (
	ViewOnboarding View = iota
	ViewCards
	ViewDetail
	ViewFilters
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Queue     *queue.Manager
	Handler   *swipe.Handler
	Filters   *filters.Store
	Counter   rescue.Counter
	KV        *storage.Store
	Cache     *navcache.Cache
	Preloader *preload.Preloader // nil disables image preloading
	Telemetry telemetry.Sink
	Logger    *zap.Logger

	ShowOnboarding bool
	ThemeName      string
	Prefs          prefs.Prefs
	PrefsPath      string // empty uses default ~/.config/pawswipe/prefs.toml

	Tick         time.Duration // snapshot refresh; zero uses DefaultUIInterval
	TapWindow    time.Duration // zero uses swipe.DefaultTapWindow
	PreviewDelay time.Duration // zero uses filters.DefaultPreviewDelay
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Dependencies
	ctx         context.Context
	queue       *queue.Manager
	handler     *swipe.Handler
	filterStore *filters.Store
	counter     rescue.Counter
	kv          *storage.Store
	nav         *navcache.Navigator
	preloader   *preload.Preloader
	previewer   *filters.Previewer
	tap         *swipe.TapDetector
	sink        telemetry.Sink
	log         *zap.Logger
	prefs       prefs.Prefs
	prefsPath   string
	tick        time.Duration

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	spinner     spinner.Model

	// Data state
	snapshot    queue.Snapshot
	lastUpdated time.Time

	// Status message shown in the command bar
	flash      string
	flashError bool
	flashSeq   int

	onboard onboardState
	editor  editorState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := logging.OrNop(opts.Logger).Named("ui")
	sink := telemetry.OrNop(opts.Telemetry)

	cache := opts.Cache
	if cache == nil {
		cache, _ = navcache.New(navcache.DefaultCapacity)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		queue:       opts.Queue,
		handler:     opts.Handler,
		filterStore: opts.Filters,
		counter:     opts.Counter,
		kv:          opts.KV,
		nav:         navcache.NewNavigator(cache, opts.Queue, navcache.DefaultRadius),
		preloader:   opts.Preloader,
		previewer:   filters.NewPreviewer(opts.Counter, opts.PreviewDelay),
		tap:         swipe.NewTapDetector(opts.TapWindow),
		sink:        sink,
		log:         logger,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		tick:        tick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewCards,
		spinner:     spin,
	}
	if opts.Queue != nil {
		m.snapshot = opts.Queue.Snapshot()
	}
	if opts.ShowOnboarding {
		m.currentView = ViewOnboarding
		m.onboard = newOnboardState(onboarding.NewFlow(opts.Counter, opts.KV,
			onboarding.WithLogger(opts.Logger),
			onboarding.WithTelemetry(sink)))
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.spinner.Tick,
		waitPreviewCmd(m.ctx, m.previewer.Results()),
	}
	if m.queue != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.queue))
	}
	if m.currentView == ViewOnboarding {
		cmds = append(cmds, countriesCmd(m.ctx, m.onboard.flow))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.queue), tickCmd(m.tick))

	case snapshotMsg:
		m.applySnapshot(queue.Snapshot(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case decidedMsg:
		return m.handleDecided(msg)

	case favoriteMsg:
		return m.handleFavorite(msg)

	case tapMsg:
		if m.tap.Resolve(msg.seq) == swipe.TapExpand && m.currentView == ViewCards {
			m.openDetail()
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil && !errors.Is(msg.err, queue.ErrSuperseded) {
			m.log.Warn("queue load failed", zap.Error(msg.err))
		}
		return m, fetchSnapshotCmd(m.queue)

	case countriesMsg:
		m.onboard.applyCountries(msg)
		return m, nil

	case sizesMsg:
		m.onboard.applySizes(msg)
		return m, nil

	case previewMsg:
		p := filters.Preview(msg)
		if m.previewer.IsCurrent(p) {
			m.editor.preview = &p
		}
		return m, waitPreviewCmd(m.ctx, m.previewer.Results())

	case clearFlashMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashError = false
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	}

	switch m.currentView {
	case ViewOnboarding:
		return m.handleOnboardingKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewFilters:
		return m.handleEditorKey(msg)
	default:
		return m.handleCardKey(msg)
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn("save preferences failed", zap.Error(err))
	}
}

// applySnapshot stores a fresh queue snapshot and warms the images of the
// dogs coming up next.
func (m *Model) applySnapshot(snap queue.Snapshot) {
	m.snapshot = snap
	if !snap.LastUpdated.IsZero() {
		m.lastUpdated = snap.LastUpdated
	}
	if m.preloader == nil {
		return
	}
	upcoming := snap.Upcoming(preload.DefaultAhead)
	urls := make([]string, 0, len(upcoming))
	for _, dog := range upcoming {
		if dog.ImageURL != "" {
			urls = append(urls, dog.ImageURL)
		}
	}
	m.preloader.Preload(urls)
}

// setFlash shows text in the command bar until FlashDuration passes.
func (m *Model) setFlash(text string, isError bool) tea.Cmd {
	m.flashSeq++
	m.flash = text
	m.flashError = isError
	seq := m.flashSeq
	return tea.Tick(FlashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg{seq: seq}
	})
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewOnboarding:
		return m.renderOnboarding()
	case ViewDetail:
		return m.renderDetail()
	case ViewFilters:
		return m.renderEditor()
	default:
		return m.renderCards()
	}
}

// contentHeight is the height left below the two header lines.
func (m Model) contentHeight() int {
	return max(m.height-2, 1)
}

// Messages

type tickMsg time.Time

type snapshotMsg queue.Snapshot

type decidedMsg struct {
	outcome swipe.Outcome
	err     error
}

type favoriteMsg struct {
	dog rescue.Dog
	err error
}

type tapMsg struct {
	seq uint64
}

type loadedMsg struct {
	err error
}

type countriesMsg struct {
	options []onboarding.CountryOption
	err     error
}

type sizesMsg struct {
	country string
	options []onboarding.SizeOption
	err     error
}

type previewMsg filters.Preview

type clearFlashMsg struct {
	seq int
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(q *queue.Manager) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(q.Snapshot())
	}
}

func decideCmd(ctx context.Context, h *swipe.Handler, g swipe.Gesture) tea.Cmd {
	return func() tea.Msg {
		out, err := h.Decide(ctx, g)
		return decidedMsg{outcome: out, err: err}
	}
}

// waitFavoriteCmd waits for the background favorite write of an accept.
func waitFavoriteCmd(out swipe.Outcome) tea.Cmd {
	if out.Favorite == nil {
		return nil
	}
	return func() tea.Msg {
		return favoriteMsg{dog: out.Dog, err: <-out.Favorite}
	}
}

func tapResolveCmd(window time.Duration, seq uint64) tea.Cmd {
	return tea.Tick(window, func(time.Time) tea.Msg {
		return tapMsg{seq: seq}
	})
}

func loadCmd(ctx context.Context, q *queue.Manager, fs filters.FilterSet) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: q.Load(ctx, fs)}
	}
}

func retryCmd(ctx context.Context, q *queue.Manager) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: q.Retry(ctx)}
	}
}

func countriesCmd(ctx context.Context, flow *onboarding.Flow) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, CountsTimeout)
		defer cancel()
		options, err := flow.CountryCounts(ctx)
		return countriesMsg{options: options, err: err}
	}
}

func sizesCmd(ctx context.Context, flow *onboarding.Flow, country string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, CountsTimeout)
		defer cancel()
		options, err := flow.SizeCountsFor(ctx, country)
		return sizesMsg{country: country, options: options, err: err}
	}
}

func waitPreviewCmd(ctx context.Context, results <-chan filters.Preview) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-results:
			return previewMsg(p)
		case <-ctx.Done():
			return nil
		}
	}
}

// shutdown stops background work owned by the model.
func (m Model) shutdown() {
	m.previewer.Stop()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	defer m.shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
