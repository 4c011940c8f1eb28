package rescue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:8080" {
		t.Fatalf("url = %q, want http://127.0.0.1:8080", u.String())
	}

	u, err = parseBaseURL("rescue.example.com:1234")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "rescue.example.com:1234" {
		t.Fatalf("url = %q, want scheme added", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesEndpointsAndEncodesQueries(t *testing.T) {
	t.Parallel()

	var gotListQuery url.Values
	var gotCountQuery url.Values
	var gotFilterCountsQuery url.Values
	var gotFavorite FavoriteRequest
	var gotFavoriteContentType string
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/dogs":
			gotListQuery = r.URL.Query()
			_, _ = io.WriteString(w, `{"dogs":[{"id":42,"name":"Rex"},{"id":"bello-7","name":"Bello"}],"total":57}`)
		case "/api/dogs/count":
			gotCountQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(CountResponse{Count: 12})
		case "/api/dogs/filter-counts":
			gotFilterCountsQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(FilterCounts{Sizes: map[string]int{"small": 3}, Ages: map[string]int{"puppy": 1}})
		case "/api/favorites":
			if r.Method != http.MethodPost {
				http.Error(w, "method", http.StatusMethodNotAllowed)
				return
			}
			gotFavoriteContentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotFavorite)
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.ListDogs(ctx, DogQuery{
		Country:   "DE",
		Sizes:     []string{"small", " ", "large"},
		Ages:      []string{"puppy"},
		Limit:     20,
		Offset:    40,
		Randomize: true,
	})
	if err != nil {
		t.Fatalf("ListDogs returned error: %v", err)
	}
	if len(page.Dogs) != 2 || page.Dogs[0].ID != "42" || page.Dogs[1].ID != "bello-7" {
		t.Fatalf("ListDogs dogs = %#v, want ids 42 and bello-7", page.Dogs)
	}
	if page.Total == nil || *page.Total != 57 {
		t.Fatalf("ListDogs total = %v, want 57", page.Total)
	}
	if gotListQuery.Get("country") != "DE" ||
		strings.Join(gotListQuery["size"], ",") != "small,large" ||
		gotListQuery.Get("age") != "puppy" ||
		gotListQuery.Get("limit") != "20" ||
		gotListQuery.Get("offset") != "40" ||
		gotListQuery.Get("randomize") != "1" {
		t.Fatalf("ListDogs query = %v, want params encoded", gotListQuery)
	}

	count, err := c.CountDogs(ctx, DogQuery{Country: "GB", Sizes: []string{"medium"}, Limit: 5, Offset: 5})
	if err != nil {
		t.Fatalf("CountDogs returned error: %v", err)
	}
	if count != 12 {
		t.Fatalf("CountDogs = %d, want 12", count)
	}
	if gotCountQuery.Get("country") != "GB" || gotCountQuery.Get("size") != "medium" ||
		gotCountQuery.Has("limit") || gotCountQuery.Has("offset") {
		t.Fatalf("CountDogs query = %v, want only filter params", gotCountQuery)
	}

	counts, err := c.FetchFilterCounts(ctx, " ES ")
	if err != nil {
		t.Fatalf("FetchFilterCounts returned error: %v", err)
	}
	if counts.Sizes["small"] != 3 || counts.Ages["puppy"] != 1 {
		t.Fatalf("FetchFilterCounts = %#v, want small=3 puppy=1", counts)
	}
	if gotFilterCountsQuery.Get("country") != "ES" {
		t.Fatalf("FetchFilterCounts query = %v, want country=ES", gotFilterCountsQuery)
	}

	if err := c.AddFavorite(ctx, "42", "Rex"); err != nil {
		t.Fatalf("AddFavorite returned error: %v", err)
	}
	if gotFavorite.DogID != "42" || gotFavorite.Name != "Rex" {
		t.Fatalf("AddFavorite body = %#v, want id 42 name Rex", gotFavorite)
	}
	if gotFavoriteContentType != "application/json" {
		t.Fatalf("AddFavorite Content-Type = %q, want application/json", gotFavoriteContentType)
	}

	if !strings.HasPrefix(gotUserAgent, "pawswipe/") {
		t.Fatalf("User-Agent = %q, want pawswipe/*", gotUserAgent)
	}
}

func TestClient_ValidatesArguments(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchFilterCounts(context.Background(), " "); err == nil {
		t.Fatalf("FetchFilterCounts returned nil error, want error")
	}
	if err := c.AddFavorite(context.Background(), "", "x"); err == nil {
		t.Fatalf("AddFavorite returned nil error, want error")
	}

	var nilClient *Client
	if _, err := nilClient.ListDogs(context.Background(), DogQuery{}); err == nil {
		t.Fatalf("nil client ListDogs returned nil error, want error")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dogs":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/favorites":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.ListDogs(context.Background(), DogQuery{Country: "DE"})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("ListDogs error = %v, want decode response error", err)
	}

	err = c.AddFavorite(context.Background(), "1", "")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("AddFavorite error = %v, want StatusError 500", err)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("AddFavorite error = %q, want status text", err.Error())
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithRateLimit(0.001))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	// The first request consumes the only token.
	if _, err := c.CountDogs(context.Background(), DogQuery{Country: "DE"}); err != nil {
		t.Fatalf("CountDogs returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.CountDogs(ctx, DogQuery{Country: "DE"})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("CountDogs error = %v, want rate limit error", err)
	}
}
