package wordpress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// DefaultPerPage is the largest page size WordPress allows.
	DefaultPerPage = 100

	CollectionArtists = "artists"
	CollectionNews    = "news"

	userAgent = "labelsync/1.0 (+wordpress-import)"
)

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	BaseURL    string       // e.g. https://example.com/wp-json/wp/v2
	HTTPClient *http.Client // defaults to a client with a 30s timeout
	PerPage    int          // defaults to DefaultPerPage
	RateLimit  float64      // requests per second, 0 disables limiting
}

// Client pages through wp/v2 collections with _embed expansions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	perPage    int
	limiter    *rate.Limiter
}

// NewClient creates a new WordPress REST client.
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.PerPage <= 0 || opts.PerPage > DefaultPerPage {
		opts.PerPage = DefaultPerPage
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		perPage:    opts.PerPage,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Page is one page of a collection.
type Page struct {
	Number     int
	Posts      []Post
	TotalItems int // X-WP-Total, 0 when the server does not send it
}

// PageFunc receives each non-empty page in order. Returning an error stops iteration.
type PageFunc func(page Page) error

// Each streams a collection page by page, starting at page 1.
//
// Iteration ends after a page shorter than the page size, an empty page, or an HTTP 400/404,
// which is how WordPress answers a page past the end. Any other non-2xx status aborts with
// [shared.ErrAPIRequest]. Returns the number of pages handed to fn.
func (c *Client) Each(ctx context.Context, collection string, fn PageFunc) (int, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("%w: WordPress API base URL is not set", shared.ErrMissingConfig)
	}

	delivered := 0
	for page := 1; ; page++ {
		p, done, err := c.fetchPage(ctx, collection, page)
		if err != nil {
			return delivered, err
		}
		if len(p.Posts) == 0 {
			return delivered, nil
		}

		delivered++
		if err := fn(p); err != nil {
			return delivered, err
		}

		if done || len(p.Posts) < c.perPage {
			return delivered, nil
		}
	}
}

// FetchAll collects every item of a collection in memory.
//
// Suitable for label-sized catalogs; prefer [Client.Each] for anything larger.
func (c *Client) FetchAll(ctx context.Context, collection string) ([]Post, error) {
	var all []Post
	_, err := c.Each(ctx, collection, func(p Page) error {
		all = append(all, p.Posts...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// fetchPage requests a single page. done is true when the server signalled the end.
func (c *Client) fetchPage(ctx context.Context, collection string, page int) (Page, bool, error) {
	p := Page{Number: page}
	if err := c.limiter.Wait(ctx); err != nil {
		return p, false, err
	}

	pageURL := fmt.Sprintf("%s/%s?_embed&per_page=%d&page=%d", c.baseURL, strings.Trim(collection, "/"), c.perPage, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return p, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return p, false, fmt.Errorf("%w: GET %s: %v", shared.ErrAPIRequest, pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return p, true, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return p, false, fmt.Errorf("%w: GET %s: status %d", shared.ErrAPIRequest, pageURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&p.Posts); err != nil {
		return p, false, fmt.Errorf("%w: failed to decode %s page %d: %v", shared.ErrAPIRequest, collection, page, err)
	}
	p.TotalItems, _ = strconv.Atoi(resp.Header.Get("X-WP-Total"))

	return p, false, nil
}
