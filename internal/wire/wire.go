//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"brand-studio-api/internal/application/session"
	"brand-studio-api/internal/config"
	"brand-studio-api/internal/domain/repository"
	"brand-studio-api/internal/infrastructure/llm"
	"brand-studio-api/internal/infrastructure/persistence/postgres"
	"brand-studio-api/internal/infrastructure/persistence/redis"
	"brand-studio-api/internal/interfaces/http/handler"
	"brand-studio-api/internal/interfaces/http/middleware"
	"brand-studio-api/internal/interfaces/http/router"
	workflowport "brand-studio-api/internal/workflow/port"
)

// InitializeDataLayer 初始化数据层
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewProjectRepository,
	postgres.NewConversationSessionRepository,
	postgres.NewConversationTurnRepository,
	postgres.NewSavedAssetRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.ConversationSessionRepository), new(*postgres.ConversationSessionRepository)),
	wire.Bind(new(repository.ConversationTurnRepository), new(*postgres.ConversationTurnRepository)),
	wire.Bind(new(repository.SavedAssetRepository), new(*postgres.SavedAssetRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	ProvideProfileStore,
	wire.Bind(new(session.ProfileStore), new(*redis.ProfileStore)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideGenerators,
	session.NewStreamRegistry,
	handler.NewHealthHandler,
	handler.NewFunnelHandler,
	handler.NewProjectHandler,
	handler.NewAssetHandler,
	ProvideHandlers,
	ProvideRouter,
)
