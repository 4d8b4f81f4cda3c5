package dedup

import (
	"fmt"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/models"
)

const softDeletedMarker = "[SOFT DELETED]"

// Cluster is a set of subscribers sharing a canonical key.
type Cluster struct {
	Key        string
	Primary    models.Subscriber
	Duplicates []models.Subscriber
}

// Size returns the number of rows in the cluster.
func (c Cluster) Size() int {
	return 1 + len(c.Duplicates)
}

// TargetEmail is the address the primary ends up with: its own when valid, otherwise the key.
func (c Cluster) TargetEmail() string {
	if IsValidEmail(c.Primary.Email) || !IsValidEmail(c.Key) {
		return c.Primary.Email
	}
	return c.Key
}

// Plan groups subscribers by canonical key and returns every group of two or more, in the order
// their first member appears in subs. Members keep their input order.
func Plan(subs []models.Subscriber, c *Canonicalizer) []Cluster {
	var keys []string
	groups := make(map[string][]models.Subscriber)
	for _, sub := range subs {
		key := c.Canonicalize(sub.Email)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], sub)
	}

	var clusters []Cluster
	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}

		primary := SelectPrimary(members)
		cluster := Cluster{Key: key, Primary: members[primary]}
		for i, m := range members {
			if i != primary {
				cluster.Duplicates = append(cluster.Duplicates, m)
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// SelectPrimary returns the index of the member that survives a merge.
//
// A valid email beats an invalid one, then ACTIVE beats any other status, then the higher email
// count wins, then the earliest creation time. Remaining ties go to the earlier member.
func SelectPrimary(members []models.Subscriber) int {
	best := 0
	for i := 1; i < len(members); i++ {
		if outranks(members[i], members[best]) {
			best = i
		}
	}
	return best
}

func outranks(a, b models.Subscriber) bool {
	if av, bv := IsValidEmail(a.Email), IsValidEmail(b.Email); av != bv {
		return av
	}
	if aa, ba := a.Status == models.StatusActive, b.Status == models.StatusActive; aa != ba {
		return aa
	}
	if a.EmailCount != b.EmailCount {
		return a.EmailCount > b.EmailCount
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// MergeSubscriber folds dup into primary: tags are unioned, notes appended with a provenance line,
// email counts summed, and the later last-sent time kept. Status is left alone.
func MergeSubscriber(primary *models.Subscriber, dup models.Subscriber, now time.Time) {
	primary.Tags = models.UnionTags(primary.Tags, dup.Tags)
	primary.Notes = MergeNotes(primary.Notes, dup, now)
	primary.EmailCount += dup.EmailCount

	if dup.LastEmailSent != nil && (primary.LastEmailSent == nil || dup.LastEmailSent.After(*primary.LastEmailSent)) {
		t := *dup.LastEmailSent
		primary.LastEmailSent = &t
	}
	if primary.Name == "" {
		primary.Name = dup.Name
	}
	if primary.CategoryID == "" {
		primary.CategoryID = dup.CategoryID
	}
}

// MergeNotes appends the duplicate's notes, minus any soft-delete marker, and a provenance line.
func MergeNotes(primaryNotes string, dup models.Subscriber, now time.Time) string {
	var parts []string
	if s := strings.TrimSpace(primaryNotes); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(strings.ReplaceAll(dup.Notes, softDeletedMarker, "")); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, ProvenanceLine(dup, now))
	return strings.Join(parts, "\n")
}

// ProvenanceLine records which row was merged away.
func ProvenanceLine(dup models.Subscriber, now time.Time) string {
	return fmt.Sprintf("Merged duplicate %s (%s) on %s", dup.Email, dup.ID, now.UTC().Format(time.DateOnly))
}

// MergeInfluencer returns the influencer that survives under email.
//
// With no existing influencer the duplicate is re-keyed. Otherwise tags are unioned and the
// existing name kept, falling back to the duplicate's.
func MergeInfluencer(existing *models.Influencer, dup models.Influencer, email string) models.Influencer {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing == nil {
		merged := dup
		merged.Email = email
		merged.Tags = models.UnionTags(dup.Tags)
		return merged
	}

	merged := *existing
	merged.Email = email
	merged.Tags = models.UnionTags(existing.Tags, dup.Tags)
	if strings.TrimSpace(merged.Name) == "" {
		merged.Name = dup.Name
	}
	if merged.CategoryID == "" {
		merged.CategoryID = dup.CategoryID
	}
	return merged
}

// Summary totals a plan.
type Summary struct {
	Clusters   int `json:"clusters"`
	Duplicates int `json:"duplicates"`
	Rewrites   int `json:"email_rewrites"`
}

// Summarize counts clusters, rows to delete, and primaries whose email will be rewritten.
func Summarize(clusters []Cluster) Summary {
	var s Summary
	for _, c := range clusters {
		s.Clusters++
		s.Duplicates += len(c.Duplicates)
		if c.TargetEmail() != c.Primary.Email {
			s.Rewrites++
		}
	}
	return s
}
