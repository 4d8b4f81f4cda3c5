package tasks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/legacy"
	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/repositories"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/dnbdoctor/labelsync/internal/storage"
	"github.com/dnbdoctor/labelsync/internal/wordpress"
)

// Task names as recorded in the import journal.
const (
	TaskArtists         = "artists"
	TaskNews            = "news"
	TaskSubscribers     = "subscribers"
	TaskFeedback        = "feedback"
	TaskDedupe          = "dedupe"
	TaskNewsImages      = "news-images"
	TaskSyncInfluencers = "sync-influencers"
)

// errLimitReached stops page iteration once --limit records were handled.
var errLimitReached = errors.New("limit reached")

// PostSource streams a WordPress collection. Implemented by [wordpress.Client].
type PostSource interface {
	Each(ctx context.Context, collection string, fn wordpress.PageFunc) (int, error)
}

// Options tune a single task run.
type Options struct {
	Limit  int  // stop after this many records, 0 for no limit
	DryRun bool // read and report, write nothing
}

// Stats counts what a task did.
type Stats struct {
	Task          string        `json:"task"`
	DryRun        bool          `json:"dry_run"`
	Total         int           `json:"total"`
	Created       int           `json:"created"`
	Updated       int           `json:"updated"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	ImageFailures int           `json:"image_failures,omitempty"`
	Unrecognized  int           `json:"unrecognized,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Imported returns created plus updated records.
func (s *Stats) Imported() int {
	return s.Created + s.Updated
}

// EngineOpts contains the dependencies for creating an Engine. Only the ones a task needs must be set.
type EngineOpts struct {
	DB          *sql.DB
	WordPress   PostSource
	Relocator   *storage.Relocator
	Legacy      legacy.Source
	Canon       *dedup.Canonicalizer
	LegacyHosts []string
	Logger      *log.Logger
	Now         func() time.Time
}

// Engine runs the import tasks against the target store.
type Engine struct {
	wp          PostSource
	relocator   *storage.Relocator
	legacy      legacy.Source
	canon       *dedup.Canonicalizer
	legacyHosts []string
	logger      *log.Logger
	now         func() time.Time

	artists     *repositories.ArtistRepository
	news        *repositories.NewsRepository
	subscribers *repositories.SubscriberRepository
	categories  *repositories.CategoryRepository
	influencers *repositories.InfluencerRepository
	feedback    *repositories.FeedbackRepository
	runs        *repositories.ImportRunRepository
}

// NewEngine creates a new Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Relocator == nil {
		opts.Relocator = storage.NewRelocator(storage.RelocatorOpts{Logger: opts.Logger})
	}
	if opts.Canon == nil {
		opts.Canon = dedup.NewCanonicalizer(dedup.DefaultKnownDomains)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		wp:          opts.WordPress,
		relocator:   opts.Relocator,
		legacy:      opts.Legacy,
		canon:       opts.Canon,
		legacyHosts: opts.LegacyHosts,
		logger:      opts.Logger,
		now:         opts.Now,
		artists:     repositories.NewArtistRepository(opts.DB),
		news:        repositories.NewNewsRepository(opts.DB),
		subscribers: repositories.NewSubscriberRepository(opts.DB),
		categories:  repositories.NewCategoryRepository(opts.DB),
		influencers: repositories.NewInfluencerRepository(opts.DB),
		feedback:    repositories.NewFeedbackRepository(opts.DB),
		runs:        repositories.NewImportRunRepository(opts.DB),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// journal records a task execution in import_runs.
type journal struct {
	engine *Engine
	run    *models.ImportRun
	stats  *Stats
	logger *log.Logger
}

func (e *Engine) begin(ctx context.Context, task string, dryRun bool) (*journal, error) {
	run := models.NewImportRun(task, dryRun)
	if err := e.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	logger := shared.WithLogger(e.logger, "task", task, "run", run.Sequence)
	logger.Info("task started", "dry_run", dryRun)

	return &journal{
		engine: e,
		run:    run,
		stats:  &Stats{Task: task, DryRun: dryRun},
		logger: logger,
	}, nil
}

// finish closes the journal entry with the final counts. It returns err unchanged.
func (j *journal) finish(ctx context.Context, err error) (*Stats, error) {
	j.run.Total = j.stats.Total
	j.run.Imported = j.stats.Imported()
	j.run.Skipped = j.stats.Skipped
	j.run.Failed = j.stats.Failed + j.stats.ImageFailures
	j.run.Finish(err)
	j.stats.Duration = j.run.Duration()

	// The run row is written with a fresh context so a cancelled task is still journaled.
	if uerr := j.engine.runs.Update(context.WithoutCancel(ctx), j.run); uerr != nil {
		j.logger.Warn("failed to journal run", "error", uerr)
	}

	if err != nil {
		j.logger.Error("task failed", "error", err, "imported", j.stats.Imported(), "failed", j.stats.Failed)
		return j.stats, err
	}

	j.logger.Info("task completed",
		"total", j.stats.Total,
		"created", j.stats.Created,
		"updated", j.stats.Updated,
		"skipped", j.stats.Skipped,
		"failed", j.stats.Failed,
		"duration", j.stats.Duration.Round(time.Millisecond),
	)
	return j.stats, nil
}

// Runs returns recent journal entries, newest first.
func (e *Engine) Runs(ctx context.Context, task string, limit int) ([]*models.ImportRun, error) {
	return e.runs.List(ctx, task, limit)
}
