package repositories

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

// insertEmailLog records a delivery for subscriberID.
func insertEmailLog(t *testing.T, db *sql.DB, subscriberID string, sentAt time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO email_logs (id, subscriber_id, subject, sent_at) VALUES (?, ?, ?, ?)`,
		shared.GenerateID(), subscriberID, "Promo", sentAt)
	if err != nil {
		t.Fatalf("failed to insert email log: %v", err)
	}
}

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestArtistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertBySlug", func(t *testing.T) {
		t.Run("Creates With Null Image", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewArtistRepository(db)
			created, err := repo.UpsertBySlug(ctx, &models.Artist{WPID: 3, Slug: "dj-dread", Name: "DJ Dread"})
			if err != nil {
				t.Fatalf("failed to upsert artist: %v", err)
			}
			if !created {
				t.Error("expected artist to be created")
			}

			got, err := repo.FindBySlug(ctx, "dj-dread")
			if err != nil {
				t.Fatalf("failed to find artist: %v", err)
			}
			if got.ImageURL != "" || got.ImageKey != "" {
				t.Errorf("expected empty image fields, got %q, %q", got.ImageURL, got.ImageKey)
			}
			if got.WPID != 3 {
				t.Errorf("expected wp id 3, got %d", got.WPID)
			}
		})

		t.Run("Rerun Converges", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewArtistRepository(db)
			for range 2 {
				artist := &models.Artist{Slug: "dj-dread", Name: "DJ Dread", Bio: "<p>Bio</p>", ImageURL: "https://cdn/x.jpg", ImageKey: "artists/dj-dread/x.jpg"}
				if _, err := repo.UpsertBySlug(ctx, artist); err != nil {
					t.Fatalf("failed to upsert artist: %v", err)
				}
			}

			n, err := repo.Count(ctx)
			if err != nil {
				t.Fatalf("failed to count artists: %v", err)
			}
			if n != 1 {
				t.Errorf("expected 1 artist, got %d", n)
			}
		})

		t.Run("Empty Fields Leave Stored Values", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewArtistRepository(db)
			first := &models.Artist{Slug: "dj-dread", Name: "DJ Dread", Bio: "Original", Instagram: "https://instagram.com/dread"}
			if _, err := repo.UpsertBySlug(ctx, first); err != nil {
				t.Fatalf("failed to create artist: %v", err)
			}

			second := &models.Artist{Slug: "dj-dread", Name: "DJ Dread (UK)", Soundcloud: "https://soundcloud.com/dread"}
			created, err := repo.UpsertBySlug(ctx, second)
			if err != nil {
				t.Fatalf("failed to update artist: %v", err)
			}
			if created {
				t.Error("expected update, not create")
			}
			if second.ID != first.ID {
				t.Errorf("expected ID %s, got %s", first.ID, second.ID)
			}

			got, _ := repo.FindBySlug(ctx, "dj-dread")
			if got.Name != "DJ Dread (UK)" {
				t.Errorf("expected name overwritten, got %q", got.Name)
			}
			if got.Bio != "Original" || got.Instagram != "https://instagram.com/dread" {
				t.Errorf("expected untouched fields kept, got bio %q instagram %q", got.Bio, got.Instagram)
			}
			if got.Soundcloud != "https://soundcloud.com/dread" {
				t.Errorf("expected soundcloud set, got %q", got.Soundcloud)
			}
		})
	})

	t.Run("Count", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		for _, name := range []string{"Zed", "Alpha", "Zed"} {
			if _, err := repo.UpsertBySlug(ctx, &models.Artist{Slug: strings.ToLower(name), Name: name}); err != nil {
				t.Fatalf("failed to upsert artist: %v", err)
			}
		}

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 artists keyed by slug, got %d", n)
		}
	})}

func TestNewsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertBySlug", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewNewsRepository(db)
		published := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)

		news := &models.News{WPID: 42, Slug: "ep-out", Title: "EP Out", Content: "<p>x</p>", PublishedAt: &published, RelatedArtistWPID: 17}
		created, err := repo.UpsertBySlug(ctx, news)
		if err != nil || !created {
			t.Fatalf("expected create, got created=%v err=%v", created, err)
		}

		update := &models.News{Slug: "ep-out", Title: "EP Out Now", CoverImageURL: "https://cdn/c.jpg"}
		created, err = repo.UpsertBySlug(ctx, update)
		if err != nil || created {
			t.Fatalf("expected update, got created=%v err=%v", created, err)
		}

		got, err := repo.FindBySlug(ctx, "ep-out")
		if err != nil {
			t.Fatalf("failed to find news: %v", err)
		}
		if got.Title != "EP Out Now" || got.Content != "<p>x</p>" || got.CoverImageURL != "https://cdn/c.jpg" {
			t.Errorf("unexpected news after update: %+v", got)
		}
		if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
			t.Errorf("expected published time kept, got %v", got.PublishedAt)
		}
		if got.RelatedArtistWPID != 17 || got.WPID != 42 {
			t.Errorf("expected ids kept, got %d, %d", got.RelatedArtistWPID, got.WPID)
		}
	})

	t.Run("UpdateContent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewNewsRepository(db)
		news := &models.News{Slug: "ep-out", Title: "EP Out", Content: "old"}
		if _, err := repo.UpsertBySlug(ctx, news); err != nil {
			t.Fatalf("failed to upsert news: %v", err)
		}

		if err := repo.UpdateContent(ctx, news.ID, "new"); err != nil {
			t.Fatalf("failed to update content: %v", err)
		}

		posts, err := repo.List(ctx, 10)
		if err != nil {
			t.Fatalf("failed to list news: %v", err)
		}
		if len(posts) != 1 || posts[0].Content != "new" {
			t.Errorf("expected rewritten content, got %+v", posts)
		}
	})
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewCategoryRepository(db)

	first, created, err := repo.FindOrCreate(ctx, &models.Category{Name: "Promoters", Color: "#f97316"})
	if err != nil || !created {
		t.Fatalf("expected create, got created=%v err=%v", created, err)
	}

	second, created, err := repo.FindOrCreate(ctx, &models.Category{Name: " promoters "})
	if err != nil {
		t.Fatalf("failed to find category: %v", err)
	}
	if created {
		t.Error("expected existing category")
	}
	if second.ID != first.ID || second.Color != "#f97316" {
		t.Errorf("expected existing category returned, got %+v", second)
	}

	if n, err := count(ctx, db, `SELECT COUNT(*) FROM categories`); err != nil || n != 1 {
		t.Errorf("expected 1 category, got %d (%v)", n, err)
	}
}

func TestSubscriberRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("FindByEmail Ignores Case", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSubscriberRepository(db)
		sub := &models.Subscriber{Email: "DJ@Example.com", Status: models.StatusActive, Tags: []string{"wp-import"}}
		if err := repo.Create(ctx, sub); err != nil {
			t.Fatalf("failed to create subscriber: %v", err)
		}

		got, err := repo.FindByEmail(ctx, "dj@example.com")
		if err != nil {
			t.Fatalf("failed to find subscriber: %v", err)
		}
		if got.ID != sub.ID || !got.HasTag("wp-import") {
			t.Errorf("unexpected subscriber %+v", got)
		}
	})

	t.Run("UpsertByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSubscriberRepository(db)
		created, err := repo.UpsertByEmail(ctx, &models.Subscriber{Email: "a@example.com", Name: "A", Status: models.StatusActive, Tags: []string{"x"}})
		if err != nil || !created {
			t.Fatalf("expected create, got created=%v err=%v", created, err)
		}

		created, err = repo.UpsertByEmail(ctx, &models.Subscriber{Email: "A@example.com", Status: models.StatusPending, Tags: []string{"y"}})
		if err != nil || created {
			t.Fatalf("expected update, got created=%v err=%v", created, err)
		}

		got, _ := repo.FindByEmail(ctx, "a@example.com")
		if got.Name != "A" || got.Status != models.StatusPending || !slices.Equal(got.Tags, []string{"x", "y"}) {
			t.Errorf("unexpected subscriber after upsert %+v", got)
		}
	})

	t.Run("MergeCluster", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		subs := NewSubscriberRepository(db)
		influencers := NewInfluencerRepository(db)

		sent := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		later := sent.Add(72 * time.Hour)

		primary := &models.Subscriber{Email: "janedoe@gmail.com", Status: models.StatusActive, EmailCount: 2, Tags: []string{"a"}, LastEmailSent: &sent}
		dup := &models.Subscriber{Email: "Jane.Doe+promo@GMAIL.com", Status: models.StatusUnsubscribed, EmailCount: 10, Tags: []string{"b"}, Notes: "[SOFT DELETED]", LastEmailSent: &later}
		for _, s := range []*models.Subscriber{primary, dup} {
			if err := subs.Create(ctx, s); err != nil {
				t.Fatalf("failed to create subscriber: %v", err)
			}
		}

		for range 3 {
			insertEmailLog(t, db, dup.ID, sent)
		}

		if _, err := influencers.Upsert(ctx, &models.Influencer{Email: "jane.doe+promo@gmail.com", Name: "Jane", Tags: []string{"radio"}}); err != nil {
			t.Fatalf("failed to create influencer: %v", err)
		}
		if _, err := influencers.Upsert(ctx, &models.Influencer{Email: "janedoe@gmail.com", Tags: []string{"club"}}); err != nil {
			t.Fatalf("failed to create influencer: %v", err)
		}

		all, err := subs.List(ctx)
		if err != nil {
			t.Fatalf("failed to list subscribers: %v", err)
		}
		clusters := dedup.Plan(all, dedup.NewCanonicalizer(nil))
		if len(clusters) != 1 {
			t.Fatalf("expected 1 cluster, got %d", len(clusters))
		}

		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		result, err := subs.MergeCluster(ctx, clusters[0], now)
		if err != nil {
			t.Fatalf("failed to merge cluster: %v", err)
		}

		if result.Deleted != 1 || result.EmailLogsMoved != 3 || result.InfluencersMerged != 1 {
			t.Errorf("unexpected result %+v", result)
		}

		if n, _ := subs.Count(ctx); n != 1 {
			t.Errorf("expected 1 subscriber left, got %d", n)
		}

		got, err := subs.FindByEmail(ctx, "janedoe@gmail.com")
		if err != nil {
			t.Fatalf("failed to find primary: %v", err)
		}
		if got.ID != primary.ID || got.EmailCount != 12 || got.Status != models.StatusActive {
			t.Errorf("unexpected primary %+v", got)
		}
		if !slices.Equal(got.Tags, []string{"a", "b"}) {
			t.Errorf("unexpected tags %v", got.Tags)
		}
		if got.LastEmailSent == nil || !got.LastEmailSent.Equal(later) {
			t.Errorf("expected later last-sent time, got %v", got.LastEmailSent)
		}
		if !strings.Contains(got.Notes, "Merged duplicate Jane.Doe+promo@GMAIL.com ("+dup.ID+") on 2024-06-01") {
			t.Errorf("missing provenance line in %q", got.Notes)
		}

		moved, err := count(ctx, db, `SELECT COUNT(*) FROM email_logs WHERE subscriber_id = ?`, primary.ID)
		if err != nil || moved != 3 {
			t.Errorf("expected 3 email logs on primary, got %d (%v)", moved, err)
		}

		if n, _ := influencers.Count(ctx); n != 1 {
			t.Fatalf("expected 1 influencer, got %d", n)
		}
		inf, err := influencers.FindByEmail(ctx, "janedoe@gmail.com")
		if err != nil {
			t.Fatalf("failed to find merged influencer: %v", err)
		}
		if inf.Name != "Jane" || !slices.Equal(inf.Tags, []string{"club", "radio"}) {
			t.Errorf("unexpected merged influencer %+v", inf)
		}
	})

	t.Run("MergeCluster Rewrites Invalid Primary", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		subs := NewSubscriberRepository(db)
		for _, email := range []string{"djexample.com", "DJEXAMPLE.COM "} {
			if err := subs.Create(ctx, &models.Subscriber{Email: email, Status: models.StatusActive}); err != nil {
				t.Fatalf("failed to create subscriber: %v", err)
			}
		}

		all, _ := subs.List(ctx)
		clusters := dedup.Plan(all, dedup.NewCanonicalizer([]string{"example.com"}))
		if len(clusters) != 1 {
			t.Fatalf("expected 1 cluster, got %d", len(clusters))
		}

		if _, err := subs.MergeCluster(ctx, clusters[0], time.Now()); err != nil {
			t.Fatalf("failed to merge cluster: %v", err)
		}

		got, err := subs.FindByEmail(ctx, "dj@example.com")
		if err != nil {
			t.Fatalf("expected primary rewritten to canonical email: %v", err)
		}
		if got.ID != clusters[0].Primary.ID {
			t.Errorf("expected primary %s, got %s", clusters[0].Primary.ID, got.ID)
		}
	})
}

func TestFeedbackRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewFeedbackRepository(db)
	rating := 4.0
	rowsFor := func(postID int64) []models.DemoFeedback {
		var rows []models.DemoFeedback
		for i := range 3 {
			rows = append(rows, models.DemoFeedback{
				ID:             shared.GenerateID(),
				Token:          "tok-fb-" + shared.RandomSuffix() + string(rune('a'+i)),
				WPPostID:       postID,
				RecipientEmail: models.ImportSentinelEmail,
				Rating:         &rating,
				CreatedAt:      time.Now(),
			})
		}
		return rows
	}

	manual := models.DemoFeedback{ID: shared.GenerateID(), Token: "manual", WPPostID: 9, RecipientEmail: "label@example.com", CreatedAt: time.Now()}
	if _, err := db.Exec(`INSERT INTO demo_feedback (id, token, wp_post_id, recipient_email, created_at) VALUES (?, ?, ?, ?, ?)`,
		manual.ID, manual.Token, manual.WPPostID, manual.RecipientEmail, manual.CreatedAt); err != nil {
		t.Fatalf("failed to insert manual feedback: %v", err)
	}

	deleted, err := repo.ReplaceForPost(ctx, 9, rowsFor(9))
	if err != nil || deleted != 0 {
		t.Fatalf("expected first import to delete nothing, got %d (%v)", deleted, err)
	}

	deleted, err = repo.ReplaceForPost(ctx, 9, rowsFor(9))
	if err != nil {
		t.Fatalf("failed to replace feedback: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 prior rows deleted, got %d", deleted)
	}

	rows, err := repo.ListByPost(ctx, 9)
	if err != nil {
		t.Fatalf("failed to list feedback: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("expected 3 imported rows plus the manual one, got %d", len(rows))
	}
}

func TestImportRunRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewImportRunRepository(db)

	first := models.NewImportRun("artists", false)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	second := models.NewImportRun("news", true)
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence, second.Sequence)
	}

	first.Total, first.Imported, first.Failed = 10, 9, 1
	first.Finish(nil)
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("failed to update run: %v", err)
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != models.RunCompleted || got.Imported != 9 || got.CompletedAt == nil {
		t.Errorf("unexpected run %+v", got)
	}

	runs, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || !runs[0].DryRun {
		t.Errorf("expected newest run first")
	}

	filtered, _ := repo.List(ctx, "artists", 0)
	if len(filtered) != 1 {
		t.Errorf("expected 1 artists run, got %d", len(filtered))
	}
}
