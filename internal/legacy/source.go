package legacy

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Postmeta keys written by the demo-distribution plugin.
const (
	MetaFeedback         = "_mlds_feedback"
	MetaAverageRating    = "_mlds_average_rating"
	MetaTrackToken       = "_mlds_track_token"
	MetaEmailSent        = "_mlds_email_sent"
	MetaTrackInteraction = "_mlds_track_interaction"
	MetaRecipientGroups  = "_mlds_recipient_groups"
	MetaUploadDate       = "_mlds_upload_date"
	MetaBatchTrackIDs    = "_mlds_batch_track_ids"
)

// MetaKeys is the allow-list of postmeta keys read from the legacy database.
var MetaKeys = []string{
	MetaFeedback,
	MetaAverageRating,
	MetaTrackToken,
	MetaEmailSent,
	MetaTrackInteraction,
	MetaRecipientGroups,
	MetaUploadDate,
	MetaBatchTrackIDs,
}

// Source reads subscriber and feedback data from the legacy WordPress installation.
type Source interface {
	Subscribers(ctx context.Context) ([]Subscriber, error)
	PostMeta(ctx context.Context) ([]PostMeta, error)
	Close() error
}

// Subscriber is a row of the plugin's subscribers table.
type Subscriber struct {
	ID        int64
	Email     string
	Name      string
	GroupName string
	DateAdded string
}

// AddedDate returns the date part of DateAdded, or the raw value when it does not parse.
func (s Subscriber) AddedDate() string {
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s.DateAdded); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s.DateAdded
}

// PostMeta is a single wp_postmeta row.
type PostMeta struct {
	PostID int64
	Key    string
	Value  string
}

// Post collects the allow-listed meta of one WordPress post.
type Post struct {
	ID   int64
	Meta map[string]string
}

// TrackToken returns the plugin's track token, or "wp" when the post has none.
func (p Post) TrackToken() string {
	if token := strings.TrimSpace(p.Meta[MetaTrackToken]); token != "" {
		return token
	}
	return "wp"
}

// Feedback returns the raw serialized feedback blob.
func (p Post) Feedback() string {
	return p.Meta[MetaFeedback]
}


// GroupPostMeta groups rows by post id, ascending. Keys outside [MetaKeys] are dropped and a
// later row for the same key wins.
func GroupPostMeta(rows []PostMeta) []Post {
	byID := make(map[int64]map[string]string)
	for _, row := range rows {
		if !slices.Contains(MetaKeys, row.Key) {
			continue
		}
		meta, ok := byID[row.PostID]
		if !ok {
			meta = make(map[string]string)
			byID[row.PostID] = meta
		}
		meta[row.Key] = row.Value
	}

	posts := make([]Post, 0, len(byID))
	for id, meta := range byID {
		posts = append(posts, Post{ID: id, Meta: meta})
	}
	slices.SortFunc(posts, func(a, b Post) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return posts
}
