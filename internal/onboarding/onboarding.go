// Package onboarding runs the first-launch wizard that picks the initial
// filters: a required country, then optional sizes.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
	"github.com/five82/pawswipe/internal/telemetry"
)

// ErrCountryRequired is returned when the wizard is finished without a
// country.
var ErrCountryRequired = errors.New("country is required")

// countFetchLimit caps concurrent per-country count requests.
const countFetchLimit = 4

// Step is a wizard page.
type Step int

const (
	StepCountry Step = iota
	StepSize
	StepDone
)

// Record is the persisted completion state.
type Record struct {
	Completed bool              `json:"completed"`
	Filters   filters.FilterSet `json:"filters"`
}

// LoadRecord reads the onboarding record.
func LoadRecord(kv *storage.Store) (Record, bool) {
	var rec Record
	if !kv.GetJSON(storage.KeyOnboarding, &rec) {
		return Record{}, false
	}
	return rec, true
}

// ShouldShow reports whether the wizard must run: onboarding was never
// completed, or no persisted filters carry a country.
func ShouldShow(kv *storage.Store, logger *zap.Logger) bool {
	rec, ok := LoadRecord(kv)
	if !ok || !rec.Completed {
		return true
	}
	return filters.NewStore(kv, logger).Load().Country == ""
}

// Reset forgets that onboarding was completed.
func Reset(kv *storage.Store) {
	kv.Remove(storage.KeyOnboarding)
}

// CountryOption is a country with its current number of dogs. Err is set
// when the count could not be fetched.
type CountryOption struct {
	filters.Country
	Count int
	Err   error
}

// SizeOption is a size bucket with its number of dogs in the chosen country.
type SizeOption struct {
	Size  string
	Count int
	Known bool
}

// Option customizes a Flow.
type Option func(*Flow)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) { f.log = logging.OrNop(logger).Named("onboarding") }
}

// WithTelemetry sets the event sink.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(f *Flow) { f.sink = telemetry.OrNop(sink) }
}

// Flow is one run of the wizard. It is not safe for concurrent use; the UI
// drives it from its update loop.
type Flow struct {
	counter rescue.Counter
	kv      *storage.Store
	log     *zap.Logger
	sink    telemetry.Sink

	step      Step
	selection filters.FilterSet
}

// NewFlow starts the wizard at the country step, preselecting whatever
// filters were persisted earlier.
func NewFlow(counter rescue.Counter, kv *storage.Store, opts ...Option) *Flow {
	f := &Flow{
		counter: counter,
		kv:      kv,
		log:     zap.NewNop(),
		sink:    telemetry.Nop{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.selection = filters.NewStore(kv, f.log).Load()
	return f
}

// Step returns the current page.
func (f *Flow) Step() Step {
	return f.step
}

// Selection returns the filters chosen so far.
func (f *Flow) Selection() filters.FilterSet {
	return f.selection
}

// CountryCounts fetches the number of dogs for every catalog country, at
// most countFetchLimit at a time. Individual failures are reported per
// option; an error is returned only when every count failed.
func (f *Flow) CountryCounts(ctx context.Context) ([]CountryOption, error) {
	options := make([]CountryOption, len(filters.Countries))
	var g errgroup.Group
	g.SetLimit(countFetchLimit)
	for i, country := range filters.Countries {
		options[i].Country = country
		g.Go(func() error {
			count, err := f.counter.CountDogs(ctx, rescue.DogQuery{Country: country.Code})
			options[i].Count = count
			options[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, opt := range options {
		if opt.Err != nil {
			errs = append(errs, fmt.Errorf("count %s: %w", opt.Code, opt.Err))
		}
	}
	if len(errs) > 0 {
		f.log.Warn("country counts incomplete", zap.Int("failed", len(errs)), zap.Error(errs[0]))
	}
	if len(errs) == len(options) {
		return options, errors.Join(errs...)
	}
	return options, nil
}

// SelectCountry sets the country and moves to the size step.
func (f *Flow) SelectCountry(code string) error {
	if code == "" {
		return ErrCountryRequired
	}
	normalized, ok := filters.CountryCode(code)
	if !ok {
		return fmt.Errorf("unknown country %q", code)
	}
	if normalized != f.selection.Country {
		f.selection = filters.New(normalized, nil, f.selection.Ages)
	}
	f.step = StepSize
	return nil
}

// SizeCounts returns the catalog sizes with their counts for the chosen
// country. On failure the sizes are still returned, marked unknown.
func (f *Flow) SizeCounts(ctx context.Context) ([]SizeOption, error) {
	return f.SizeCountsFor(ctx, f.selection.Country)
}

// SizeCountsFor is SizeCounts for an explicit country. It never reads the
// selection, so the UI may run it in the background while sizes are toggled.
func (f *Flow) SizeCountsFor(ctx context.Context, country string) ([]SizeOption, error) {
	options := make([]SizeOption, len(filters.Sizes))
	for i, size := range filters.Sizes {
		options[i].Size = size
	}
	if country == "" {
		return options, ErrCountryRequired
	}
	counts, err := f.counter.FetchFilterCounts(ctx, country)
	if err != nil {
		return options, fmt.Errorf("fetch size counts: %w", err)
	}
	for i := range options {
		options[i].Count, options[i].Known = counts.Sizes[options[i].Size]
	}
	return options, nil
}

// ToggleSize flips a size in the selection.
func (f *Flow) ToggleSize(size string) {
	f.selection = f.selection.ToggleSize(size)
}

// Back returns from the size step to the country step.
func (f *Flow) Back() {
	if f.step == StepSize {
		f.step = StepCountry
	}
}

// Complete finishes the wizard with sizes and persists the completion flag
// together with the filters.
func (f *Flow) Complete(sizes []string) (filters.FilterSet, error) {
	if !f.selection.IsValid() {
		return filters.FilterSet{}, ErrCountryRequired
	}
	fs := f.selection.WithSizes(sizes)
	if err := f.persist(fs); err != nil {
		return filters.FilterSet{}, err
	}
	f.selection = fs
	f.step = StepDone
	f.log.Info("onboarding completed", zap.Stringer("filters", fs))
	f.sink.Event(telemetry.EventOnboardingCompleted, telemetry.Props{
		"country": fs.Country,
		"sizes":   fmt.Sprint(len(fs.Sizes)),
	})
	return fs, nil
}

// Skip finishes the wizard from the size step without a size preference.
func (f *Flow) Skip() (filters.FilterSet, error) {
	return f.Complete(nil)
}

// CompleteSelected finishes with the sizes toggled so far.
func (f *Flow) CompleteSelected() (filters.FilterSet, error) {
	return f.Complete(slices.Clone(f.selection.Sizes))
}

func (f *Flow) persist(fs filters.FilterSet) error {
	rec, err := storage.EncodeJSON(Record{Completed: true, Filters: fs})
	if err != nil {
		return fmt.Errorf("encode onboarding record: %w", err)
	}
	key, raw, err := filters.Entry(fs)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	f.kv.SetBatch(map[string][]byte{
		storage.KeyOnboarding: rec,
		key:                   raw,
	})
	return nil
}
