package main

import (
	"context"
	"errors"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quanta-kt/CosmicDiversBot/internal/config"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/periodic"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/cache"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/database"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/database/repository/prefixrepo"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/discord"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/logger"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/metrics"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/observability"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/wikipedia"
	"github.com/quanta-kt/CosmicDiversBot/internal/interfaces/commands"
	"github.com/quanta-kt/CosmicDiversBot/internal/interfaces/httpserver"
)

// Application runs the gateway connection and the ops HTTP server side by side.
type Application struct {
	cfg        *config.Config
	gateway    *discord.Gateway
	httpServer *httpserver.HttpServer
	sessions   *pagination.Registry
	log        zerolog.Logger
}

func NewApplication(cfg *config.Config, gateway *discord.Gateway, httpServer *httpserver.HttpServer, sessions *pagination.Registry, log zerolog.Logger) *Application {
	return &Application{
		cfg:        cfg,
		gateway:    gateway,
		httpServer: httpServer,
		sessions:   sessions,
		log:        log,
	}
}

// Start blocks until ctx is cancelled or either component fails, then waits
// for open result browsers to tear down.
func (a *Application) Start(ctx context.Context) error {
	a.log.Info().
		Str("storage_namespace", a.cfg.StorageNamespace()).
		Str("default_prefix", a.cfg.DefaultPrefix).
		Msg("starting cosmic divers bot")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.gateway.Run(gctx)
	})
	g.Go(func() error {
		return a.httpServer.Run(gctx)
	})
	err := g.Wait()

	a.sessions.Wait(a.cfg.ShutdownTimeout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newApplication assembles the object graph by hand; wire.go describes the
// same graph for code generation.
func newApplication(ctx context.Context, cfg *config.Config) (*Application, func(), error) {
	log := logger.New(cfg)

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Application, func(), error) {
		cleanup()
		return nil, nil, err
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	})

	db, closeDB, err := newGormDB(ctx, newDatabaseConfig(cfg), log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	prefixCache, closeCache, err := newPrefixCache(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeCache)

	prefixes, err := newPrefixService(ctx, prefixrepo.NewPrefixGormRepository(db), prefixCache, cfg, log)
	if err != nil {
		return fail(err)
	}

	wikiClient, closeWiki := newWikipediaClient(cfg, log)
	cleanups = append(cleanups, closeWiki)

	session, err := newDiscordSession(cfg)
	if err != nil {
		return fail(err)
	}
	client := discord.NewClient(session, log)

	escalator := newEscalator(client, cfg, log)
	sessions := newSessionRegistry(log)

	deps := newCommandDeps(client, prefixes, wikiClient, newPeriodicTable(cfg, log), sessions, escalator, newCommandSettings(cfg), log)
	registry, err := newCommandRegistry(deps)
	if err != nil {
		return fail(err)
	}

	dispatcher := newDispatcher(registry, prefixes, client, escalator, log)
	gateway := discord.NewGateway(session, client, dispatcher, sessions, escalator, log)
	httpServer := httpserver.New(cfg, log, gateway, sessions)

	return NewApplication(cfg, gateway, httpServer, sessions, log), cleanup, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		Schema:          cfg.StorageNamespace(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		cleanup()
		return nil, nil, err
	}
	return db, cleanup, nil
}

func newPrefixCache(cfg *config.Config, log zerolog.Logger) (cache.PrefixCache, func(), error) {
	c, err := cache.New(cache.CacheConfig{
		Type:      cfg.PrefixCacheType,
		RedisURL:  cfg.PrefixCacheRedisURL,
		MaxSize:   cfg.PrefixCacheMaxSize,
		Namespace: cfg.StorageNamespace(),
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("close prefix cache")
		}
	}, nil
}

func newPrefixService(ctx context.Context, repo prefix.Repository, c prefix.Cache, cfg *config.Config, log zerolog.Logger) (*prefix.Service, error) {
	svc := prefix.NewService(repo, c, cfg.DefaultPrefix, log)
	if err := svc.Warm(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func newWikipediaClient(cfg *config.Config, log zerolog.Logger) (*wikipedia.Client, func()) {
	client := wikipedia.NewClient(wikipedia.ClientConfig{
		SearchURL:      cfg.WikipediaSearchURL,
		APIURL:         cfg.WikipediaAPIURL,
		Timeout:        cfg.WikipediaHTTPTimeout,
		MaxFailures:    cfg.WikipediaCBMaxFailures,
		BreakerTimeout: cfg.WikipediaCBOpenTimeout,
	}, log)
	return client, client.Close
}

// newPeriodicTable returns nil when the table file is unavailable, which
// leaves the element command unregistered.
func newPeriodicTable(cfg *config.Config, log zerolog.Logger) *periodic.Table {
	table, err := periodic.Load(cfg.PeriodicTablePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", cfg.PeriodicTablePath).Msg("periodic table not found, element command disabled")
		} else {
			log.Error().Err(err).Str("path", cfg.PeriodicTablePath).Msg("load periodic table")
		}
		return nil
	}
	log.Info().Int("elements", table.Len()).Msg("periodic table loaded")
	return table
}

func newDiscordSession(cfg *config.Config) (*discordgo.Session, error) {
	return discord.NewSession(cfg.BotToken, cfg.DiscordHTTPTimeout)
}

func newEscalator(client *discord.Client, cfg *config.Config, log zerolog.Logger) *escalation.Escalator {
	return escalation.NewEscalator(client, escalation.Options{
		WebhookID:   cfg.CrashWebhookID,
		ErrorColour: config.ColourError,
		InfoColour:  config.ColourInfo,
	}, metrics.Recorder{}, log)
}

func newSessionRegistry(log zerolog.Logger) *pagination.Registry {
	return pagination.NewRegistry(metrics.Recorder{}, log)
}

func newCommandSettings(cfg *config.Config) commands.Settings {
	return commands.Settings{
		InfoColour:        config.ColourInfo,
		ErrorColour:       config.ColourError,
		ThumbnailURL:      cfg.ThumbnailURL,
		GithubURL:         cfg.GithubURL,
		CreatorName:       cfg.CreatorName,
		PaginationTimeout: cfg.PaginationTimeout,
	}
}

func newCommandDeps(
	client *discord.Client,
	prefixes *prefix.Service,
	wikiClient *wikipedia.Client,
	elements *periodic.Table,
	sessions *pagination.Registry,
	escalator *escalation.Escalator,
	settings commands.Settings,
	log zerolog.Logger,
) commands.Deps {
	return commands.Deps{
		Client:     client,
		Moderation: client,
		Prefixes:   prefixes,
		Wiki:       wikiClient,
		Elements:   elements,
		Sessions:   sessions,
		Failures:   escalator,
		Settings:   settings,
		Log:        log,
	}
}

func newCommandRegistry(deps commands.Deps) (*command.Registry, error) {
	registry := command.NewRegistry()
	if err := commands.Register(registry, deps); err != nil {
		return nil, err
	}
	return registry, nil
}

func newDispatcher(registry *command.Registry, prefixes *prefix.Service, client *discord.Client, escalator *escalation.Escalator, log zerolog.Logger) *command.Dispatcher {
	instr := observability.NewCommandInstrumentation(metrics.Recorder{})
	return command.NewDispatcher(registry, prefixes, client, escalator, instr, log)
}
