package filters

import (
	"net/url"
	"slices"
	"strings"

	"github.com/five82/pawswipe/internal/rescue"
)

// FilterSet is the user's search criteria for the swipe queue. Values are
// immutable: every mutator returns a new FilterSet and leaves the receiver's
// slices untouched. Sizes and Ages are kept sorted and unique.
type FilterSet struct {
	Country string   `json:"country"`
	Sizes   []string `json:"sizes,omitempty"`
	Ages    []string `json:"ages,omitempty"`
}

// New builds a normalized FilterSet.
func New(country string, sizes, ages []string) FilterSet {
	return FilterSet{
		Country: normalizeCountry(country),
		Sizes:   normalizeSet(sizes),
		Ages:    normalizeSet(ages),
	}
}

// SetCountry returns a copy with country replaced.
func (f FilterSet) SetCountry(code string) FilterSet {
	out := f.clone()
	out.Country = normalizeCountry(code)
	return out
}

// ToggleSize returns a copy with size added or removed.
func (f FilterSet) ToggleSize(size string) FilterSet {
	out := f.clone()
	out.Sizes = toggle(out.Sizes, size)
	return out
}

// ToggleAge returns a copy with age added or removed.
func (f FilterSet) ToggleAge(age string) FilterSet {
	out := f.clone()
	out.Ages = toggle(out.Ages, age)
	return out
}

// WithSizes returns a copy with the size selection replaced.
func (f FilterSet) WithSizes(sizes []string) FilterSet {
	out := f.clone()
	out.Sizes = normalizeSet(sizes)
	return out
}

// HasSize reports whether size is selected.
func (f FilterSet) HasSize(size string) bool {
	_, found := slices.BinarySearch(f.Sizes, normalizeValue(size))
	return found
}

// HasAge reports whether age is selected.
func (f FilterSet) HasAge(age string) bool {
	_, found := slices.BinarySearch(f.Ages, normalizeValue(age))
	return found
}

// IsValid reports whether the set can drive a query.
func (f FilterSet) IsValid() bool {
	return f.Country != ""
}

// IsDefault reports whether every field is at its zero value.
func (f FilterSet) IsDefault() bool {
	return f.Country == "" && len(f.Sizes) == 0 && len(f.Ages) == 0
}

// Equal compares two sets by value.
func (f FilterSet) Equal(other FilterSet) bool {
	return f.Country == other.Country &&
		slices.Equal(f.Sizes, other.Sizes) &&
		slices.Equal(f.Ages, other.Ages)
}

// QueryString serializes the set deterministically: country first, then
// each size, then each age, both in sorted order. Two sets holding the same
// values always produce the same string regardless of toggle order.
func (f FilterSet) QueryString() string {
	parts := make([]string, 0, 1+len(f.Sizes)+len(f.Ages))
	if f.Country != "" {
		parts = append(parts, "country="+url.QueryEscape(f.Country))
	}
	for _, s := range f.Sizes {
		parts = append(parts, "size="+url.QueryEscape(s))
	}
	for _, a := range f.Ages {
		parts = append(parts, "age="+url.QueryEscape(a))
	}
	return strings.Join(parts, "&")
}

// Values returns the set as url.Values.
func (f FilterSet) Values() url.Values {
	v := url.Values{}
	if f.Country != "" {
		v.Set("country", f.Country)
	}
	for _, s := range f.Sizes {
		v.Add("size", s)
	}
	for _, a := range f.Ages {
		v.Add("age", a)
	}
	return v
}

// String implements fmt.Stringer for logs and the header.
func (f FilterSet) String() string {
	if f.IsDefault() {
		return "no filters"
	}
	parts := []string{f.Country}
	if len(f.Sizes) > 0 {
		parts = append(parts, strings.Join(f.Sizes, "/"))
	}
	if len(f.Ages) > 0 {
		parts = append(parts, strings.Join(f.Ages, "/"))
	}
	return strings.Join(parts, " · ")
}

func (f FilterSet) clone() FilterSet {
	return FilterSet{
		Country: f.Country,
		Sizes:   slices.Clone(f.Sizes),
		Ages:    slices.Clone(f.Ages),
	}
}

func toggle(set []string, value string) []string {
	value = normalizeValue(value)
	if value == "" {
		return set
	}
	i, found := slices.BinarySearch(set, value)
	if found {
		return slices.Delete(set, i, i+1)
	}
	return slices.Insert(set, i, value)
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = normalizeValue(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Query converts the set into a listing request.
func (f FilterSet) Query(limit, offset int, randomize bool) rescue.DogQuery {
	return rescue.DogQuery{
		Country:   f.Country,
		Sizes:     slices.Clone(f.Sizes),
		Ages:      slices.Clone(f.Ages),
		Limit:     limit,
		Offset:    offset,
		Randomize: randomize,
	}
}
