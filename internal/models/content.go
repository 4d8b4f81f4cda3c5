package models

import "time"

// Artist is a roster entry imported from the WordPress artists collection.
type Artist struct {
	ID         string `json:"id"`
	WPID       int64  `json:"wp_id,omitempty"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Bio        string `json:"bio,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	ImageKey   string `json:"image_key,omitempty"`
	Facebook   string `json:"facebook,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
	Soundcloud string `json:"soundcloud,omitempty"`
	Spotify    string `json:"spotify,omitempty"`
	Website    string `json:"website,omitempty"`
	Timestamps
}

func (a *Artist) Key() string { return a.Slug }

func (a *Artist) Validate() error {
	if blank(a.Slug) {
		return invalid("artist", "slug is required")
	}
	if blank(a.Name) {
		return invalid("artist", "name is required for %s", a.Slug)
	}
	return nil
}

// News is a news post imported from the WordPress news collection.
type News struct {
	ID                string     `json:"id"`
	WPID              int64      `json:"wp_id,omitempty"`
	Slug              string     `json:"slug"`
	Title             string     `json:"title"`
	Content           string     `json:"content,omitempty"`
	Excerpt           string     `json:"excerpt,omitempty"`
	CoverImageURL     string     `json:"cover_image_url,omitempty"`
	CoverImageKey     string     `json:"cover_image_key,omitempty"`
	SoundcloudURL     string     `json:"soundcloud_url,omitempty"`
	RelatedArtistWPID int64      `json:"related_artist_wp_id,omitempty"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	Timestamps
}

func (n *News) Key() string { return n.Slug }

func (n *News) Validate() error {
	if blank(n.Slug) {
		return invalid("news", "slug is required")
	}
	if blank(n.Title) {
		return invalid("news", "title is required for %s", n.Slug)
	}
	return nil
}
