package legacy

import (
	"strings"
	"testing"
)

func TestGroupPostMeta(t *testing.T) {
	rows := []PostMeta{
		{PostID: 20, Key: MetaFeedback, Value: "a:0:{}"},
		{PostID: 10, Key: MetaTrackToken, Value: "tok"},
		{PostID: 10, Key: "_edit_lock", Value: "ignored"},
		{PostID: 20, Key: MetaAverageRating, Value: "4.5"},
		{PostID: 10, Key: MetaTrackToken, Value: "tok2"},
	}

	posts := GroupPostMeta(rows)
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != 10 || posts[1].ID != 20 {
		t.Errorf("expected posts ordered by id, got %d, %d", posts[0].ID, posts[1].ID)
	}
	if _, ok := posts[0].Meta["_edit_lock"]; ok {
		t.Error("expected keys outside the allow-list to be dropped")
	}
	if posts[0].TrackToken() != "tok2" {
		t.Errorf("expected later row to win, got %s", posts[0].TrackToken())
	}
	if posts[1].TrackToken() != "wp" {
		t.Errorf("expected default track token, got %s", posts[1].TrackToken())
	}
	if posts[1].Meta[MetaAverageRating] != "4.5" {
		t.Errorf("expected average rating meta kept, got %q", posts[1].Meta[MetaAverageRating])
	}
}

func TestSubscriberAddedDate(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "2021-03-04 10:11:12", expected: "2021-03-04"},
		{raw: "2021-03-04", expected: "2021-03-04"},
		{raw: "yesterday", expected: "yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := (Subscriber{DateAdded: tt.raw}).AddedDate(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestQueries(t *testing.T) {
	t.Run("Subscribers", func(t *testing.T) {
		q := SubscribersQuery("wp_")
		if !strings.Contains(q, "FROM wp_mlds_subscribers") {
			t.Errorf("unexpected query %s", q)
		}
	})

	t.Run("PostMeta", func(t *testing.T) {
		q := PostMetaQuery("site2_")
		if !strings.Contains(q, "FROM site2_postmeta") {
			t.Errorf("unexpected table in %s", q)
		}
		for _, key := range MetaKeys {
			if !strings.Contains(q, "'"+key+"'") {
				t.Errorf("expected %s in query", key)
			}
		}
	})
}
