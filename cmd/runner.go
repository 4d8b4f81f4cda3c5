package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/formatter"
	"github.com/dnbdoctor/labelsync/internal/legacy"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/dnbdoctor/labelsync/internal/storage"
	"github.com/dnbdoctor/labelsync/internal/tasks"
	"github.com/dnbdoctor/labelsync/internal/ui"
	"github.com/dnbdoctor/labelsync/internal/wordpress"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Resources left nil in [RunnerOpts] are opened per command from the resolved configuration.
type Runner struct {
	config      *shared.Config
	resolveConf bool
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	painter     ui.Painter
	db          *sql.DB
	legacy      legacy.Source
	store       storage.ObjectStore
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // nil resolves config.toml, .env and the environment in [Runner.Before]
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Painter    ui.Painter
	DB         *sql.DB
	Legacy     legacy.Source
	Store      storage.ObjectStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	resolve := opts.Config == nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Painter == nil {
		opts.Painter = ui.DefaultPalette()
	}

	return &Runner{
		config:      opts.Config,
		resolveConf: resolve,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		painter:     opts.Painter,
		db:          opts.DB,
		legacy:      opts.Legacy,
		store:       opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, subscribersCommand, newsCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before resolves configuration and the log level ahead of any command action.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.resolveConf {
		config, err := shared.ResolveConfig(cmd.String("config"), cmd.String("env-file"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	return ctx, nil
}

// openDB returns the target store with migrations applied and a func releasing it.
func (r *Runner) openDB(ctx context.Context) (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		r.logger.Info("applied migrations", "versions", applied)
	}

	return db, func() { db.Close() }, nil
}

// openLegacy connects to the legacy MySQL database.
func (r *Runner) openLegacy() (legacy.Source, error) {
	if r.legacy != nil {
		return r.legacy, nil
	}

	src, err := legacy.OpenMySQL(r.config.Legacy)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("connected to legacy database", "addr", r.config.Legacy.Addr(), "name", r.config.Legacy.Name)
	return src, nil
}

// relocator builds the image relocator. Missing storage settings disable relocation.
func (r *Runner) relocator() *storage.Relocator {
	store := r.store
	if store == nil {
		r2, err := storage.NewR2Store(r.config.Storage)
		if err != nil {
			r.logger.Warn("image relocation disabled", "reason", err)
		} else {
			store = r2
		}
	}

	return storage.NewRelocator(storage.RelocatorOpts{
		Store:         store,
		PublicBaseURL: r.config.Storage.PublicBaseURL,
		HTTPClient:    r.timeoutClient(),
		Logger:        r.logger,
	})
}

func (r *Runner) wordpressClient() *wordpress.Client {
	return wordpress.NewClient(wordpress.ClientOpts{
		BaseURL:    r.config.WordPress.APIBase,
		HTTPClient: r.timeoutClient(),
		PerPage:    r.config.WordPress.PerPage,
		RateLimit:  r.config.WordPress.RateLimit,
	})
}

// timeoutClient applies the configured request timeout unless the injected client has its own.
func (r *Runner) timeoutClient() *http.Client {
	if r.httpClient.Timeout > 0 || r.config.WordPress.TimeoutSeconds <= 0 {
		return r.httpClient
	}
	client := *r.httpClient
	client.Timeout = time.Duration(r.config.WordPress.TimeoutSeconds) * time.Second
	return &client
}

// engineNeeds selects the external resources a task touches.
type engineNeeds struct {
	wordpress bool
	storage   bool
	legacy    bool
}

// withEngine opens what needs asks for, runs fn, and releases everything afterwards.
func (r *Runner) withEngine(ctx context.Context, needs engineNeeds, fn func(*tasks.Engine) error) error {
	db, closeDB, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	domains := r.config.Dedup.KnownDomains
	if len(domains) == 0 {
		domains = dedup.DefaultKnownDomains
	}

	opts := tasks.EngineOpts{
		DB:          db,
		Canon:       dedup.NewCanonicalizer(domains),
		LegacyHosts: r.config.WordPress.LegacyHosts,
		Logger:      r.logger,
	}
	if needs.wordpress {
		opts.WordPress = r.wordpressClient()
	}
	if needs.storage {
		opts.Relocator = r.relocator()
	}
	if needs.legacy {
		src, err := r.openLegacy()
		if err != nil {
			return err
		}
		defer src.Close()
		opts.Legacy = src
	}

	return fn(tasks.NewEngine(opts))
}

// taskFunc matches the import methods of [tasks.Engine] as method expressions.
type taskFunc func(*tasks.Engine, context.Context, tasks.Options, chan<- tasks.ProgressUpdate) (*tasks.Stats, error)

// runTask executes a batch task with the shared --limit, --dry-run and --format flags.
func (r *Runner) runTask(ctx context.Context, cmd *cli.Command, needs engineNeeds, fn taskFunc) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := formatter.CheckStatsFormat(format); err != nil {
		return err
	}

	opts, err := taskOptions(cmd)
	if err != nil {
		return err
	}

	return r.withEngine(ctx, needs, func(engine *tasks.Engine) error {
		progress, wait := r.startProgress(cmd)
		stats, err := fn(engine, ctx, opts, progress)
		wait()
		if err != nil {
			return err
		}
		return r.writeStats(format, stats)
	})
}

func taskOptions(cmd *cli.Command) (tasks.Options, error) {
	limit := cmd.Int("limit")
	if limit < 0 {
		return tasks.Options{}, fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}
	return tasks.Options{Limit: limit, DryRun: cmd.Bool("dry-run")}, nil
}

// startProgress returns the channel a task reports to when --progress is set, and a func that
// closes it and waits for the printer to finish.
func (r *Runner) startProgress(cmd *cli.Command) (chan<- tasks.ProgressUpdate, func()) {
	if !cmd.Bool("progress") {
		return nil, func() {}
	}

	updates := make(chan tasks.ProgressUpdate, 64)
	printer := ui.NewProgress(r.output, r.painter)
	go printer.Run(updates)

	return updates, func() {
		close(updates)
		printer.Wait()
	}
}

func (r *Runner) writeStats(format formatter.Format, stats *tasks.Stats) error {
	if format == formatter.FormatText {
		return r.writePlain("%s\n", ui.Summary(r.painter, stats))
	}

	data, err := formatter.RenderStats(format, stats)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
