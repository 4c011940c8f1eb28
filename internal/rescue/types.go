package rescue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DogID is a stable dog identifier. The API emits numeric ids for some
// organizations and string slugs for others; both decode into a DogID.
type DogID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *DogID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode dog id: %w", err)
		}
		*id = DogID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode dog id: %w", err)
	}
	*id = DogID(n.String())
	return nil
}

// String implements fmt.Stringer.
func (id DogID) String() string { return string(id) }

// Dog is one adoptable animal as returned by /api/dogs.
type Dog struct {
	ID           DogID  `json:"id"`
	Name         string `json:"name"`
	Breed        string `json:"breed"`
	Age          string `json:"age"`
	Size         string `json:"size"`
	Sex          string `json:"sex"`
	Country      string `json:"country"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	URL          string `json:"url"`
}

// DogPage mirrors /api/dogs. Total is nil when the backend does not count.
type DogPage struct {
	Dogs  []Dog `json:"dogs"`
	Total *int  `json:"total"`
}

// CountResponse mirrors /api/dogs/count.
type CountResponse struct {
	Count int `json:"count"`
}

// FilterCounts mirrors /api/dogs/filter-counts: how many dogs each size and
// age bucket holds for a country.
type FilterCounts struct {
	Sizes map[string]int `json:"sizes"`
	Ages  map[string]int `json:"ages"`
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	DogID DogID  `json:"dog_id"`
	Name  string `json:"name,omitempty"`
}
