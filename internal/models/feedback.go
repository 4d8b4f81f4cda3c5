package models

import (
	"strings"
	"time"
)

// ImportSentinelEmail marks demo feedback rows written by the legacy importer so reruns can
// replace them without touching feedback collected by the site itself.
const ImportSentinelEmail = "wp-import@dnbdoctor.local"

// DemoFeedback is a single feedback entry on a demo track.
type DemoFeedback struct {
	ID             string    `json:"id"`
	Token          string    `json:"token"`
	WPPostID       int64     `json:"wp_post_id"`
	RecipientEmail string    `json:"recipient_email"`
	ReviewerEmail  string    `json:"reviewer_email,omitempty"`
	Rating         *float64  `json:"rating,omitempty"`
	Comment        string    `json:"comment,omitempty"`
	Downloaded     bool      `json:"downloaded"`
	Listened       bool      `json:"listened"`
	TrackToken     string    `json:"track_token,omitempty"`
	Raw            string    `json:"raw,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (f *DemoFeedback) Key() string { return f.Token }

func (f *DemoFeedback) Validate() error {
	if blank(f.Token) {
		return invalid("demo feedback", "token is required")
	}
	if f.WPPostID <= 0 {
		return invalid("demo feedback", "wordpress post id is required for %s", f.Token)
	}
	if blank(f.RecipientEmail) {
		return invalid("demo feedback", "recipient email is required for %s", f.Token)
	}
	if f.Rating != nil && (*f.Rating < 0 || *f.Rating > 10) {
		return invalid("demo feedback", "rating %.1f out of range for %s", *f.Rating, f.Token)
	}
	return nil
}

// Imported reports whether the row was written by the legacy importer.
func (f *DemoFeedback) Imported() bool {
	return strings.EqualFold(f.RecipientEmail, ImportSentinelEmail)
}
