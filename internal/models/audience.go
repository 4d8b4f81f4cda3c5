package models

import (
	"slices"
	"strings"
	"time"
)

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	StatusActive       SubscriberStatus = "ACTIVE"
	StatusPending      SubscriberStatus = "PENDING"
	StatusUnsubscribed SubscriberStatus = "UNSUBSCRIBED"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriberStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusUnsubscribed:
		return true
	}
	return false
}

// Subscriber is a newsletter recipient. Email is the natural key.
type Subscriber struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Name          string           `json:"name,omitempty"`
	Status        SubscriberStatus `json:"status"`
	Source        string           `json:"source,omitempty"`
	Tags          []string         `json:"tags"`
	CategoryID    string           `json:"category_id,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	EmailCount    int              `json:"email_count"`
	LastEmailSent *time.Time       `json:"last_email_sent,omitempty"`
	Timestamps
}

func (s *Subscriber) Key() string { return strings.ToLower(s.Email) }

func (s *Subscriber) Validate() error {
	if blank(s.Email) {
		return invalid("subscriber", "email is required")
	}
	if !s.Status.Valid() {
		return invalid("subscriber", "unknown status %q for %s", s.Status, s.Email)
	}
	if s.EmailCount < 0 {
		return invalid("subscriber", "negative email count for %s", s.Email)
	}
	return nil
}

// HasTag reports whether the subscriber carries tag.
func (s *Subscriber) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Category is a label-assigned grouping of subscribers.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamps
}

func (c *Category) Key() string { return c.Name }

func (c *Category) Validate() error {
	if blank(c.Name) {
		return invalid("category", "name is required")
	}
	return nil
}

// Influencer is a promoter contact keyed by lowercased email.
type Influencer struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name,omitempty"`
	Tags       []string `json:"tags"`
	CategoryID string   `json:"category_id,omitempty"`
	Timestamps
}

func (i *Influencer) Key() string { return strings.ToLower(i.Email) }

func (i *Influencer) Validate() error {
	if blank(i.Email) {
		return invalid("influencer", "email is required")
	}
	if i.Email != strings.ToLower(i.Email) {
		return invalid("influencer", "email must be lowercased: %s", i.Email)
	}
	return nil
}

// UnionTags merges tag sets, keeping first-seen order and dropping blanks and duplicates.
func UnionTags(sets ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, set := range sets {
		for _, tag := range set {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
