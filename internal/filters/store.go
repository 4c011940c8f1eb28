package filters

import (
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/storage"
)

// Store persists the active FilterSet.
type Store struct {
	kv  *storage.Store
	log *zap.Logger
}

// NewStore returns a Store backed by kv.
func NewStore(kv *storage.Store, logger *zap.Logger) *Store {
	return &Store{kv: kv, log: logging.OrNop(logger).Named("filters")}
}

// persisted is the on-disk shape. Older clients wrote country names instead
// of codes and had no ages field; both still decode.
type persisted struct {
	Country string   `json:"country"`
	Sizes   []string `json:"sizes"`
	Ages    []string `json:"ages"`
}

// Load returns the persisted FilterSet, or the zero value when nothing
// usable is stored. Legacy country names are migrated to ISO codes and the
// migrated value is written back immediately.
func (s *Store) Load() FilterSet {
	var raw persisted
	if !s.kv.GetJSON(storage.KeyFilters, &raw) {
		return FilterSet{}
	}

	fs := New("", raw.Sizes, raw.Ages)
	migrated := false
	if raw.Country != "" {
		code, ok := CountryCode(raw.Country)
		switch {
		case !ok:
			s.log.Info("dropping unknown persisted country", zap.String("country", raw.Country))
			migrated = true
		case code != raw.Country:
			s.log.Info("migrated persisted country",
				zap.String("from", raw.Country), zap.String("to", code))
			fs = fs.SetCountry(code)
			migrated = true
		default:
			fs = fs.SetCountry(code)
		}
	}

	if migrated {
		s.Set(fs)
	}
	return fs
}

// Set persists fs when at least one field differs from the default. A
// default set is not written, so clearing filters in the editor does not
// erase the last useful selection.
func (s *Store) Set(fs FilterSet) {
	if fs.IsDefault() {
		return
	}
	s.kv.SetJSON(storage.KeyFilters, fs)
}

// Entry encodes fs for a storage batch.
func Entry(fs FilterSet) (string, []byte, error) {
	raw, err := storage.EncodeJSON(fs)
	return storage.KeyFilters, raw, err
}

// Clear removes the persisted set.
func (s *Store) Clear() {
	s.kv.Remove(storage.KeyFilters)
}
