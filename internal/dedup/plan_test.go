package dedup

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dnbdoctor/labelsync/internal/models"
)

func sub(id, email string, status models.SubscriberStatus, count int, created time.Time) models.Subscriber {
	s := models.Subscriber{ID: id, Email: email, Status: status, EmailCount: count}
	s.CreatedAt = created
	return s
}

func TestSelectPrimary(t *testing.T) {
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)

	tests := []struct {
		name     string
		members  []models.Subscriber
		expected string
	}{
		{
			name: "Status Beats Count",
			members: []models.Subscriber{
				sub("a", "dj@example.com", models.StatusUnsubscribed, 10, early),
				sub("b", "DJ@example.com", models.StatusActive, 2, late),
			},
			expected: "b",
		},
		{
			name: "Valid Email Beats Status",
			members: []models.Subscriber{
				sub("a", "djexample.com", models.StatusActive, 5, early),
				sub("b", "dj@example.com", models.StatusPending, 0, late),
			},
			expected: "b",
		},
		{
			name: "Count Beats Age",
			members: []models.Subscriber{
				sub("a", "dj@example.com", models.StatusActive, 1, early),
				sub("b", "Dj@example.com", models.StatusActive, 3, late),
			},
			expected: "b",
		},
		{
			name: "Earliest Created Wins",
			members: []models.Subscriber{
				sub("a", "dj@example.com", models.StatusActive, 1, late),
				sub("b", "Dj@example.com", models.StatusActive, 1, early),
			},
			expected: "b",
		},
		{
			name: "Full Tie Keeps First",
			members: []models.Subscriber{
				sub("a", "dj@example.com", models.StatusActive, 1, early),
				sub("b", "Dj@example.com", models.StatusActive, 1, early),
			},
			expected: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.members[SelectPrimary(tt.members)].ID
			if got != tt.expected {
				t.Errorf("expected primary %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	subs := []models.Subscriber{
		sub("1", "Jane.Doe+promo@GMAIL.com", models.StatusUnsubscribed, 10, now),
		sub("2", "solo@example.com", models.StatusActive, 0, now),
		sub("3", "janedoe@gmail.com", models.StatusActive, 2, now),
		sub("4", "bobexample.com", models.StatusActive, 0, now),
		sub("5", "bob@example.com", models.StatusPending, 0, now),
		sub("6", "jane.doe@googlemail.com", models.StatusPending, 0, now),
	}

	clusters := Plan(subs, NewCanonicalizer([]string{"example.com"}))
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}

	jane := clusters[0]
	if jane.Key != "janedoe@gmail.com" || jane.Size() != 3 {
		t.Errorf("unexpected first cluster %s of size %d", jane.Key, jane.Size())
	}
	if jane.Primary.ID != "3" {
		t.Errorf("expected ACTIVE row 3 as primary, got %s", jane.Primary.ID)
	}
	var dupIDs []string
	for _, d := range jane.Duplicates {
		dupIDs = append(dupIDs, d.ID)
	}
	if !slices.Equal(dupIDs, []string{"1", "6"}) {
		t.Errorf("expected duplicates in input order, got %v", dupIDs)
	}

	bob := clusters[1]
	if bob.Key != "bob@example.com" || bob.Primary.ID != "5" {
		t.Errorf("expected valid-email row 5 as primary of %s, got %s", bob.Key, bob.Primary.ID)
	}

	summary := Summarize(clusters)
	if summary.Clusters != 2 || summary.Duplicates != 3 || summary.Rewrites != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}

	t.Run("Invalid Primary Is Rewritten", func(t *testing.T) {
		clusters := Plan([]models.Subscriber{
			sub("1", "djexample.com", models.StatusActive, 1, now),
			sub("2", "DJEXAMPLE.COM", models.StatusActive, 0, now),
		}, NewCanonicalizer([]string{"example.com"}))

		if len(clusters) != 1 {
			t.Fatalf("expected 1 cluster, got %d", len(clusters))
		}
		if clusters[0].TargetEmail() != "dj@example.com" {
			t.Errorf("expected canonical target email, got %s", clusters[0].TargetEmail())
		}
		if Summarize(clusters).Rewrites != 1 {
			t.Error("expected one rewrite")
		}
	})
}

func TestMergeSubscriber(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)
	later := now.Add(-time.Hour)

	primary := models.Subscriber{
		ID: "p", Email: "dj@example.com", Status: models.StatusActive,
		Tags: []string{"wp-import", "techno"}, Notes: "Met at festival", EmailCount: 2, LastEmailSent: &earlier,
	}
	dup := models.Subscriber{
		ID: "d", Email: "DJ@example.com", Status: models.StatusUnsubscribed,
		Tags: []string{"techno", "vip"}, Notes: "[SOFT DELETED] old row", EmailCount: 5, LastEmailSent: &later,
	}

	MergeSubscriber(&primary, dup, now)

	if !slices.Equal(primary.Tags, []string{"wp-import", "techno", "vip"}) {
		t.Errorf("unexpected tags %v", primary.Tags)
	}
	if primary.EmailCount != 7 {
		t.Errorf("expected summed count 7, got %d", primary.EmailCount)
	}
	if !primary.LastEmailSent.Equal(later) {
		t.Errorf("expected later last-sent time, got %v", primary.LastEmailSent)
	}
	if primary.Status != models.StatusActive {
		t.Errorf("expected primary status kept, got %s", primary.Status)
	}
	if strings.Contains(primary.Notes, "[SOFT DELETED]") {
		t.Error("expected soft delete marker stripped")
	}
	want := "Met at festival\nold row\nMerged duplicate DJ@example.com (d) on 2024-06-01"
	if primary.Notes != want {
		t.Errorf("unexpected notes:\n%s\nwant:\n%s", primary.Notes, want)
	}
}

func TestMergeInfluencer(t *testing.T) {
	dup := models.Influencer{ID: "i2", Email: "dj+old@example.com", Name: "DJ Old", Tags: []string{"radio"}}

	t.Run("Re-key When No Existing", func(t *testing.T) {
		merged := MergeInfluencer(nil, dup, "DJ@Example.com")
		if merged.ID != "i2" || merged.Email != "dj@example.com" || merged.Name != "DJ Old" {
			t.Errorf("unexpected merge %+v", merged)
		}
	})

	t.Run("Union With Existing", func(t *testing.T) {
		existing := &models.Influencer{ID: "i1", Email: "dj@example.com", Tags: []string{"club"}}
		merged := MergeInfluencer(existing, dup, "dj@example.com")

		if merged.ID != "i1" {
			t.Errorf("expected existing row to survive, got %s", merged.ID)
		}
		if !slices.Equal(merged.Tags, []string{"club", "radio"}) {
			t.Errorf("unexpected tags %v", merged.Tags)
		}
		if merged.Name != "DJ Old" {
			t.Errorf("expected duplicate name as fallback, got %q", merged.Name)
		}
	})

	t.Run("Existing Name Kept", func(t *testing.T) {
		existing := &models.Influencer{ID: "i1", Email: "dj@example.com", Name: "DJ New"}
		if merged := MergeInfluencer(existing, dup, "dj@example.com"); merged.Name != "DJ New" {
			t.Errorf("expected existing name, got %q", merged.Name)
		}
	})
}
