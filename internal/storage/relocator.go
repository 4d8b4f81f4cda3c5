package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const (
	defaultFilename    = "image"
	defaultContentType = "application/octet-stream"
	maxImageBytes      = 50 << 20
)

// Asset is the outcome of relocating one image.
//
// When Relocated is false URL holds the original source URL and Key is empty. Err carries the
// soft failure, if any; it is nil when relocation was skipped because storage is disabled.
type Asset struct {
	URL       string
	Key       string
	Relocated bool
	Err       error
}

// Failed reports whether a relocation was attempted and did not succeed.
func (a Asset) Failed() bool {
	return a.Err != nil
}

// RelocatorOpts contains configuration options for creating a Relocator.
type RelocatorOpts struct {
	Store         ObjectStore // nil disables relocation
	PublicBaseURL string
	HTTPClient    *http.Client
	Logger        *log.Logger
	MaxImageBytes int64 // defaults to 50 MiB
}

// Relocator copies images from the legacy site into object storage.
type Relocator struct {
	store         ObjectStore
	publicBaseURL string
	httpClient    *http.Client
	logger        *log.Logger
	maxBytes      int64
}

// NewRelocator creates a Relocator. Without a store or public base URL it is disabled and every
// call returns the source URL untouched.
func NewRelocator(opts RelocatorOpts) *Relocator {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = maxImageBytes
	}

	return &Relocator{
		store:         opts.Store,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		maxBytes:      opts.MaxImageBytes,
	}
}

// Enabled reports whether uploads will be attempted.
func (r *Relocator) Enabled() bool {
	return r.store != nil && r.publicBaseURL != ""
}

// Relocate copies sourceURL to {entityType}/{slug}/{filename}.
//
// Download and upload failures are soft: the returned Asset keeps the source URL and the error is
// only returned when ctx is done.
func (r *Relocator) Relocate(ctx context.Context, sourceURL, entityType, slug string) (Asset, error) {
	return r.relocate(ctx, sourceURL, func(filename string) string {
		return ObjectKey(entityType, slug, filename)
	})
}

// RelocateContent copies an inline content image to {entityType}/{slug}/content/{filename}.
func (r *Relocator) RelocateContent(ctx context.Context, sourceURL, entityType, slug string) (Asset, error) {
	return r.relocate(ctx, sourceURL, func(filename string) string {
		return ContentKey(entityType, slug, filename)
	})
}

func (r *Relocator) relocate(ctx context.Context, sourceURL string, keyFor func(string) string) (Asset, error) {
	original := Asset{URL: sourceURL}
	if sourceURL == "" || !r.Enabled() {
		return original, nil
	}

	body, contentType, err := r.download(ctx, sourceURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return original, ctxErr
		}
		r.logger.Warn("image download failed, keeping original URL", "url", sourceURL, "error", err)
		original.Err = err
		return original, nil
	}

	key := keyFor(Filename(sourceURL))
	if err := r.store.Put(ctx, key, contentType, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return original, ctxErr
		}
		r.logger.Warn("image upload failed, keeping original URL", "key", key, "error", err)
		if !errors.Is(err, shared.ErrUpload) {
			err = fmt.Errorf("%w: %s: %v", shared.ErrUpload, key, err)
		}
		original.Err = err
		return original, nil
	}

	r.logger.Debug("image relocated", "source", sourceURL, "key", key)
	return Asset{URL: PublicURL(r.publicBaseURL, key), Key: key, Relocated: true}, nil
}

func (r *Relocator) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrImageFetch, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: status %d", shared.ErrImageFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrImageFetch, err)
	}
	if int64(len(body)) > r.maxBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", shared.ErrImageFetch, r.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return body, contentType, nil
}

// Filename returns the last path segment of rawURL, or "image" when there is none.
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFilename
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return defaultFilename
	}
	return name
}

// ObjectKey builds {entityType}/{slug}/{filename}.
func ObjectKey(entityType, slug, filename string) string {
	return entityType + "/" + slug + "/" + filename
}

// ContentKey builds {entityType}/{slug}/content/{filename}.
func ContentKey(entityType, slug, filename string) string {
	return entityType + "/" + slug + "/content/" + filename
}

// PublicURL joins the public bucket URL and an object key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
