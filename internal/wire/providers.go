// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"brand-studio-api/internal/application/generation"
	"brand-studio-api/internal/config"
	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/internal/infrastructure/persistence/postgres"
	"brand-studio-api/internal/infrastructure/persistence/redis"
	"brand-studio-api/internal/interfaces/http/handler"
	"brand-studio-api/internal/interfaces/http/middleware"
	"brand-studio-api/internal/interfaces/http/router"
	workflowport "brand-studio-api/internal/workflow/port"
	"brand-studio-api/pkg/logger"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient    *postgres.Client
	TxManager   *postgres.TxManager
	ProjectRepo *postgres.ProjectRepository
	SessionRepo *postgres.ConversationSessionRepository
	TurnRepo    *postgres.ConversationTurnRepository
	AssetRepo   *postgres.SavedAssetRepository

	// Redis
	RedisClient  *redis.Client
	Cache        *redis.Cache
	RateLimiter  *redis.RateLimiter
	ProfileStore *redis.ProfileStore
}

// ProvidePostgresClient 提供 PostgreSQL 客户端及清理函数
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error(ctx, "failed to close postgres client", err)
		}
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端及清理函数
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error(ctx, "failed to close redis client", err)
		}
	}
	return client, cleanup, nil
}

// ProvideProfileStore 提供会话画像存储
func ProvideProfileStore(client *redis.Client, cfg *config.Config) *redis.ProfileStore {
	return redis.NewProfileStore(client, cfg.Funnel.ProfileTTL)
}

// ProvideGenerators 按漏斗类型提供生成器集合
func ProvideGenerators(factory workflowport.ChatModelFactory) map[entity.ConversationKind]*generation.FunnelGenerator {
	return map[entity.ConversationKind]*generation.FunnelGenerator{
		entity.ConversationKindBrand:  generation.NewFunnelGenerator(factory, string(entity.ConversationKindBrand)),
		entity.ConversationKindLogo:   generation.NewFunnelGenerator(factory, string(entity.ConversationKindLogo)),
		entity.ConversationKindShorts: generation.NewFunnelGenerator(factory, string(entity.ConversationKindShorts)),
	}
}

// ProvideHandlers 聚合路由依赖的处理器
func ProvideHandlers(
	health *handler.HealthHandler,
	funnel *handler.FunnelHandler,
	project *handler.ProjectHandler,
	asset *handler.AssetHandler,
) router.Handlers {
	return router.Handlers{
		Health:  health,
		Funnel:  funnel,
		Project: project,
		Asset:   asset,
	}
}

// ProvideRouter 构建 HTTP 路由器
func ProvideRouter(cfg *config.Config, handlers router.Handlers, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, handlers, limiter)
}
