package wordpress

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Rendered wraps the {"rendered": "..."} objects WordPress uses for titles and bodies.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post is a single item from a wp/v2 collection (artists, news).
//
// ACF and Meta are kept raw because WordPress serializes an empty field group as [] or false
// rather than {}.
type Post struct {
	ID       int64           `json:"id"`
	Slug     string          `json:"slug"`
	Status   string          `json:"status"`
	Date     string          `json:"date"`
	DateGMT  string          `json:"date_gmt"`
	Link     string          `json:"link"`
	Title    Rendered        `json:"title"`
	Content  Rendered        `json:"content"`
	Excerpt  Rendered        `json:"excerpt"`
	ACF      json.RawMessage `json:"acf"`
	Meta     json.RawMessage `json:"meta"`
	Embedded Embedded        `json:"_embedded"`
}

// Embedded holds the _embed expansions we read.
type Embedded struct {
	FeaturedMedia []Media `json:"wp:featuredmedia"`
}

// Media is an attachment from wp:featuredmedia.
type Media struct {
	ID           int64           `json:"id"`
	SourceURL    string          `json:"source_url"`
	MimeType     string          `json:"mime_type"`
	MediaDetails json.RawMessage `json:"media_details"`
}

type mediaDetails struct {
	Sizes map[string]struct {
		SourceURL string `json:"source_url"`
	} `json:"sizes"`
}

// DecodedTitle returns the rendered title with HTML entities decoded.
func (p *Post) DecodedTitle() string {
	return strings.TrimSpace(DecodeEntities(p.Title.Rendered))
}

// FeaturedImageURL returns the best URL for the featured media: the full size, then large,
// then the attachment's own source_url. Empty when the post has no featured media.
func (p *Post) FeaturedImageURL() string {
	if len(p.Embedded.FeaturedMedia) == 0 {
		return ""
	}
	media := p.Embedded.FeaturedMedia[0]

	var details mediaDetails
	if isObject(media.MediaDetails) {
		if err := json.Unmarshal(media.MediaDetails, &details); err == nil {
			for _, size := range []string{"full", "large"} {
				if s, ok := details.Sizes[size]; ok && s.SourceURL != "" {
					return s.SourceURL
				}
			}
		}
	}

	return media.SourceURL
}

// PublishedAt parses date_gmt, falling back to the site-local date, both read as UTC.
func (p *Post) PublishedAt() *time.Time {
	for _, raw := range []string{p.DateGMT, p.Date} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ACFString returns an ACF field as a string, or "" when missing.
func (p *Post) ACFString(key string) string {
	return fieldString(p.ACF, key)
}

// MetaString returns a registered meta field as a string, or "" when missing.
func (p *Post) MetaString(key string) string {
	return fieldString(p.Meta, key)
}

// MetaInt returns a registered meta field as an integer. Arrays yield their first element.
func (p *Post) MetaInt(key string) int64 {
	n, _ := strconv.ParseInt(p.MetaString(key), 10, 64)
	return n
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

func fieldString(raw json.RawMessage, key string) string {
	if !isObject(raw) {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	return scalarString(fields[key])
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return ""
	case []any:
		if len(val) > 0 {
			return scalarString(val[0])
		}
	}
	return ""
}
