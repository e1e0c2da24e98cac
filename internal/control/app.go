// Package control wires configuration into a running application.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/scriptforge/internal/api"
	"github.com/vietddude/scriptforge/internal/content"
	"github.com/vietddude/scriptforge/internal/core/config"
	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/core/worker"
	"github.com/vietddude/scriptforge/internal/engine/routing"
	"github.com/vietddude/scriptforge/internal/engine/usage"
	"github.com/vietddude/scriptforge/internal/infra/gemini"
	redisclient "github.com/vietddude/scriptforge/internal/infra/redis"
	"github.com/vietddude/scriptforge/internal/infra/storage"
	"github.com/vietddude/scriptforge/internal/infra/storage/memory"
	"github.com/vietddude/scriptforge/internal/infra/storage/postgres"
	"github.com/vietddude/scriptforge/internal/metrics"
	"github.com/vietddude/scriptforge/internal/prompt"
)

const shutdownTimeout = 15 * time.Second

// App owns every long-lived component.
type App struct {
	cfg        *config.AppConfig
	settings   *domain.Settings
	dispatcher *routing.Dispatcher
	content    *content.Service
	usage      *usage.Tracker
	stop       *routing.StopSwitch
	sessions   storage.SessionRepository
	server     *api.Server
	pruner     *worker.Pruner
	db         *postgres.DB
	redis      *redisclient.Client
	log        *slog.Logger
}

// Option customizes NewApp.
type Option func(*options)

type options struct {
	generator content.Generator
	log       *slog.Logger
}

// WithGenerator replaces the Gemini client.
func WithGenerator(g content.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// NewApp creates the application with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*App, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	e := cfg.Engine

	app := &App{
		cfg:   cfg,
		usage: usage.NewTracker(),
		stop:  routing.NewStopSwitch(),
		log:   log,
	}

	// 1. Active pool: Redis wins over the configured start index
	activePool := e.ActivePool
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redis = rc

		idx, ok, err := rc.LoadPoolIndex(ctx)
		switch {
		case err != nil:
			log.Warn("Failed to load active pool, using configured index", "error", err)
		case ok:
			activePool = idx
		}
		log.Info("Using Redis for active pool", "pool", activePool)
	}
	app.settings = domain.NewSettings(e.Credentials, domain.ModelMapping{
		Heavy: e.Models.Heavy,
		Light: e.Models.Light,
	}, activePool)
	metrics.ActivePool.Set(float64(app.settings.ActivePool()))

	// 2. Dispatcher
	classifier, err := buildClassifier(e.Classifier)
	if err != nil {
		app.close()
		return nil, err
	}
	dispatchOpts := []routing.Option{
		routing.WithClassifier(classifier),
		routing.WithCooldown(e.Cooldown),
		routing.WithFallback(routing.Fallback{
			APIKey:     e.FallbackAPIKey,
			HeavyModel: e.FallbackModels.Heavy,
			LightModel: e.FallbackModels.Light,
		}),
		routing.WithObserver(app.usage),
		routing.WithLogger(log),
	}
	if app.redis != nil {
		dispatchOpts = append(dispatchOpts, routing.WithPoolRecorder(app.redis))
	}
	app.dispatcher = routing.NewDispatcher(app.settings, dispatchOpts...)

	if len(e.Credentials) == 0 && e.FallbackAPIKey == "" {
		log.Warn("No credentials configured; generative calls will fail")
	}

	// 3. Prompts
	prompts := prompt.DefaultRegistry()
	if e.PromptsFile != "" {
		n, err := prompts.LoadFile(e.PromptsFile)
		if err != nil {
			app.close()
			return nil, err
		}
		log.Info("Loaded prompt templates", "file", e.PromptsFile, "count", n)
	}

	// 4. Content service
	gen := o.generator
	if gen == nil {
		gen = gemini.NewClient(e.RequestTimeout)
	}
	app.content = content.NewService(app.dispatcher, gen, prompts, log)

	// 5. Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		app.db = db
		if err := db.Migrate(); err != nil {
			app.close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		app.sessions = postgres.NewSessionRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		app.sessions = memory.NewSessionRepo(memory.NewMemoryStorage())
		log.Info("Using Memory storage")
	}
	app.pruner = worker.NewPruner(cfg.History.Retention, app.sessions, log)

	// 6. API
	checks := map[string]api.HealthCheck{}
	if app.db != nil {
		checks["database"] = app.db.Health
	}
	if app.redis != nil {
		checks["redis"] = app.redis.Ping
	}
	app.server = api.NewServer(api.Deps{
		Content:  app.content,
		Stop:     app.stop,
		Sessions: app.sessions,
		Usage:    app.usage,
		Settings: app.settings,
		Checks:   checks,
		Log:      log,
	}, cfg.Server.Port)

	log.Info("Engine ready",
		"credentials", len(e.Credentials),
		"heavy_models", e.Models.Heavy,
		"light_models", e.Models.Light,
		"active_pool", app.settings.ActivePool())

	return app, nil
}

// buildClassifier extends the built-in rules with configured patterns.
func buildClassifier(cfg config.ClassifierConfig) (*routing.Classifier, error) {
	extra := map[string][]string{
		"overloaded": cfg.Overloaded,
		"quota":      cfg.Quota,
		"fatal":      cfg.Fatal,
	}
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	c := routing.NewClassifier()
	for _, name := range names {
		kind, ok := routing.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown error kind %q", name)
		}
		c = c.With(kind, extra[name]...)
	}
	return c, nil
}

// Content returns the content service.
func (a *App) Content() *content.Service { return a.content }

// StopSwitch returns the operation stop switch.
func (a *App) StopSwitch() *routing.StopSwitch { return a.stop }

// Sessions returns the session history store.
func (a *App) Sessions() storage.SessionRepository { return a.sessions }

// Settings returns the engine settings.
func (a *App) Settings() *domain.Settings { return a.settings }

// Usage returns the per-credential usage tracker.
func (a *App) Usage() *usage.Tracker { return a.usage }

// Server returns the HTTP API server.
func (a *App) Server() *api.Server { return a.server }

// Run serves the API and background workers until ctx is done, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("API server listening", "port", a.cfg.Server.Port)
		return a.server.Start()
	})
	g.Go(func() error {
		a.pruner.Start(ctx)
		return nil
	})
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("Stopping application...")
		if n := a.stop.Stop(); n > 0 {
			a.log.Info("Stopped running operations", "count", n)
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.server.Stop(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

// Close releases external connections.
func (a *App) Close() {
	a.close()
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
		a.db = nil
	}
}
