//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/quanta-kt/CosmicDiversBot/internal/config"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/command"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/escalation"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/pagination"
	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/cache"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/database/repository/prefixrepo"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/discord"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/logger"
	"github.com/quanta-kt/CosmicDiversBot/internal/interfaces/httpserver"
)

var storageSet = wire.NewSet(
	newDatabaseConfig,
	newGormDB,
	prefixrepo.NewPrefixGormRepository,
	wire.Bind(new(prefix.Repository), new(*prefixrepo.PrefixGormRepository)),
	newPrefixCache,
	wire.Bind(new(prefix.Cache), new(cache.PrefixCache)),
	newPrefixService,
)

var gatewaySet = wire.NewSet(
	newDiscordSession,
	discord.NewClient,
	newEscalator,
	newSessionRegistry,
	newDispatcher,
	discord.NewGateway,
	wire.Bind(new(discord.MessageHandler), new(*command.Dispatcher)),
	wire.Bind(new(discord.ControlRouter), new(*pagination.Registry)),
	wire.Bind(new(discord.ProcessReporter), new(*escalation.Escalator)),
)

// BuildApplication assembles the bot with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config) (*Application, func(), error) {
	wire.Build(
		logger.New,
		storageSet,
		newWikipediaClient,
		newPeriodicTable,
		gatewaySet,
		newCommandSettings,
		newCommandDeps,
		newCommandRegistry,
		httpserver.New,
		wire.Bind(new(httpserver.Readiness), new(*discord.Gateway)),
		wire.Bind(new(httpserver.SessionCounter), new(*pagination.Registry)),
		NewApplication,
	)
	return nil, nil, nil
}
