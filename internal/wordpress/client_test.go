package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/goccy/go-json"
)

// collectionServer serves total posts in pages of perPage. Pages past the last one answer
// pastEndStatus, or an empty array when it is 0.
func collectionServer(t *testing.T, total, pastEndStatus int, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		if r.URL.Path != "/wp-json/wp/v2/artists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if _, ok := r.URL.Query()["_embed"]; !ok {
			t.Error("expected _embed query parameter")
		}
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if perPage != DefaultPerPage {
			t.Errorf("expected per_page %d, got %d", DefaultPerPage, perPage)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		start := (page - 1) * perPage
		if start >= total {
			if pastEndStatus != 0 {
				w.WriteHeader(pastEndStatus)
				fmt.Fprint(w, `{"code":"rest_post_invalid_page_number"}`)
				return
			}
			w.Write([]byte("[]"))
			return
		}

		end := min(start+perPage, total)
		w.Header().Set("X-WP-Total", strconv.Itoa(total))
		posts := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			posts = append(posts, map[string]any{
				"id":    i + 1,
				"slug":  fmt.Sprintf("artist-%d", i+1),
				"title": map[string]string{"rendered": fmt.Sprintf("Artist %d", i+1)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(posts)
	}))
}

func TestClient(t *testing.T) {
	t.Run("NewClient", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "https://example.com/wp-json/wp/v2/"})

			if c.baseURL != "https://example.com/wp-json/wp/v2" {
				t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
			}
			if c.perPage != DefaultPerPage {
				t.Errorf("expected per page %d, got %d", DefaultPerPage, c.perPage)
			}
			if c.httpClient == nil {
				t.Error("expected default http client")
			}
		})

		t.Run("Per Page Capped", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "http://wp", PerPage: 500})
			if c.perPage != DefaultPerPage {
				t.Errorf("expected per page capped at %d, got %d", DefaultPerPage, c.perPage)
			}
		})
	})

	t.Run("FetchAll", func(t *testing.T) {
		tests := []struct {
			name             string
			total            int
			pastEndStatus    int
			expectedRequests int32
		}{
			{name: "Short Final Page", total: 250, expectedRequests: 3},
			{name: "Short Final Page With 404 Server", total: 250, pastEndStatus: http.StatusNotFound, expectedRequests: 3},
			{name: "Exact Multiple Ends On Empty Page", total: 200, expectedRequests: 3},
			{name: "Exact Multiple Ends On 400", total: 200, pastEndStatus: http.StatusBadRequest, expectedRequests: 3},
			{name: "Exact Multiple Ends On 404", total: 200, pastEndStatus: http.StatusNotFound, expectedRequests: 3},
			{name: "Fourth Page 404", total: 300, pastEndStatus: http.StatusNotFound, expectedRequests: 4},
			{name: "Empty Collection", total: 0, expectedRequests: 1},
			{name: "Empty Collection 404", total: 0, pastEndStatus: http.StatusNotFound, expectedRequests: 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var requests int32
				server := collectionServer(t, tt.total, tt.pastEndStatus, &requests)
				defer server.Close()

				c := NewClient(ClientOpts{BaseURL: server.URL + "/wp-json/wp/v2"})
				posts, err := c.FetchAll(context.Background(), CollectionArtists)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				if len(posts) != tt.total {
					t.Errorf("expected %d posts, got %d", tt.total, len(posts))
				}
				if got := atomic.LoadInt32(&requests); got != tt.expectedRequests {
					t.Errorf("expected %d requests, got %d", tt.expectedRequests, got)
				}
				if tt.total > 0 && posts[tt.total-1].Slug != fmt.Sprintf("artist-%d", tt.total) {
					t.Errorf("expected last slug artist-%d, got %s", tt.total, posts[tt.total-1].Slug)
				}
			})
		}
	})

	t.Run("Each", func(t *testing.T) {
		t.Run("Streams Pages In Order", func(t *testing.T) {
			var requests int32
			server := collectionServer(t, 250, 0, &requests)
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL + "/wp-json/wp/v2"})

			var sizes []int
			var pagesSeen []int
			pages, err := c.Each(context.Background(), CollectionArtists, func(p Page) error {
				pagesSeen = append(pagesSeen, p.Number)
				sizes = append(sizes, len(p.Posts))
				if p.TotalItems != 250 {
					t.Errorf("expected total items 250, got %d", p.TotalItems)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if pages != 3 {
				t.Errorf("expected 3 pages, got %d", pages)
			}
			if fmt.Sprint(sizes) != "[100 100 50]" {
				t.Errorf("unexpected page sizes %v", sizes)
			}
			if fmt.Sprint(pagesSeen) != "[1 2 3]" {
				t.Errorf("unexpected page numbers %v", pagesSeen)
			}
		})

		t.Run("Callback Error Stops Iteration", func(t *testing.T) {
			var requests int32
			server := collectionServer(t, 250, 0, &requests)
			defer server.Close()

			stop := errors.New("stop")
			c := NewClient(ClientOpts{BaseURL: server.URL + "/wp-json/wp/v2"})
			_, err := c.Each(context.Background(), CollectionArtists, func(Page) error { return stop })

			if !errors.Is(err, stop) {
				t.Errorf("expected callback error, got %v", err)
			}
			if got := atomic.LoadInt32(&requests); got != 1 {
				t.Errorf("expected 1 request, got %d", got)
			}
		})

		t.Run("Server Error Is Fatal", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			_, err := c.FetchAll(context.Background(), CollectionNews)

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>maintenance</html>"))
			}))
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			_, err := c.FetchAll(context.Background(), CollectionNews)

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Missing Base URL", func(t *testing.T) {
			c := NewClient(ClientOpts{})
			_, err := c.FetchAll(context.Background(), CollectionNews)

			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			c := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1", RateLimit: 1})
			if _, err := c.FetchAll(ctx, CollectionNews); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})
}
