// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/dnbdoctor/labelsync/internal/legacy"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/goccy/go-json"
)

// NewTestDB opens an in-memory target store with all migrations applied and closes it on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// StoredObject is one upload recorded by [FakeStore].
type StoredObject struct {
	ContentType string
	Body        []byte
}

// FakeStore is an in-memory object store. Set Err to make every Put fail.
type FakeStore struct {
	mu      sync.Mutex
	Objects map[string]StoredObject
	Puts    int
	Err     error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: make(map[string]StoredObject)}
}

func (s *FakeStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	if s.Err != nil {
		return s.Err
	}
	s.Objects[key] = StoredObject{ContentType: contentType, Body: body}
	return nil
}

// Has reports whether key was uploaded.
func (s *FakeStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// FakeSource is a test double for [legacy.Source]
type FakeSource struct {
	Subs    []legacy.Subscriber
	Meta    []legacy.PostMeta
	SubsErr error
	MetaErr error
	Closed  bool
}

func (f *FakeSource) Subscribers(ctx context.Context) ([]legacy.Subscriber, error) {
	if f.SubsErr != nil {
		return nil, f.SubsErr
	}
	return f.Subs, nil
}

func (f *FakeSource) PostMeta(ctx context.Context) ([]legacy.PostMeta, error) {
	if f.MetaErr != nil {
		return nil, f.MetaErr
	}
	return f.Meta, nil
}

func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// WPCollections maps a collection name to the posts served for it. Posts are raw JSON objects.
type WPCollections map[string][]map[string]any

// NewWordPressServer serves wp/v2 style paginated collections with X-WP-Total headers. A page
// past the end answers 400 like WordPress does.
func NewWordPressServer(t *testing.T, collections WPCollections) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, ok := collections[r.URL.Path[1:]]
		if !ok {
			http.NotFound(w, r)
			return
		}

		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if perPage <= 0 {
			perPage = 10
		}
		if page <= 0 {
			page = 1
		}

		start := (page - 1) * perPage
		if start > 0 && start >= len(posts) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"rest_post_invalid_page_number"}`)
			return
		}
		end := min(start+perPage, len(posts))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-WP-Total", strconv.Itoa(len(posts)))
		if err := json.NewEncoder(w).Encode(posts[start:end]); err != nil {
			t.Errorf("failed to encode page: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// WPPost builds a minimal wp/v2 post. A non-empty imageURL becomes the embedded featured media.
func WPPost(id int, slug, title, content, imageURL string) map[string]any {
	post := map[string]any{
		"id":        id,
		"slug":      slug,
		"date":      "2023-05-01T12:00:00",
		"title":     map[string]any{"rendered": title},
		"content":   map[string]any{"rendered": content},
		"excerpt":   map[string]any{"rendered": ""},
		"acf":       []any{},
		"meta":      map[string]any{},
		"_embedded": map[string]any{},
	}
	if imageURL != "" {
		post["_embedded"] = map[string]any{
			"wp:featuredmedia": []any{map[string]any{"source_url": imageURL}},
		}
	}
	return post
}

// NewImageServer serves a small PNG for every path except those under /missing/, which answer 404.
// The returned counter reports how many requests were made.
func NewImageServer(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()

	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()

		if len(r.URL.Path) >= 9 && r.URL.Path[:9] == "/missing/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	}))
	t.Cleanup(srv.Close)

	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return hits
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
