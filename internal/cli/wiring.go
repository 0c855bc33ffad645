package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"github.com/suteetoe/tenant-onboarding/internal/identity"
	"github.com/suteetoe/tenant-onboarding/internal/kvstore"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/onboarding"
	"github.com/suteetoe/tenant-onboarding/internal/pipeline"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/pkg/config"
	"github.com/suteetoe/tenant-onboarding/pkg/database"
	"github.com/suteetoe/tenant-onboarding/pkg/jwtutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds every component built from configuration.
type app struct {
	cfg *config.Config
	log *zap.Logger

	db  *gorm.DB
	kv  kvstore.Store
	jwt *jwtutil.JWTUtil

	tenants  *repository.TenantStore
	authInfo *repository.AuthInfoStore
	mappings *repository.StackMappingStore
	metadata *repository.StackMetadataStore

	orchestrator *onboarding.Orchestrator
	bridge       *pipeline.Bridge
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	a.jwt = jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
		Issuer:          cfg.JWT.Issuer,
	})

	if cfg.NeedsDatabase() {
		db, err := database.InitDB(&cfg.DB, log)
		if err != nil {
			return nil, err
		}
		a.db = db
	}

	kv, err := openStore(ctx, cfg, a.db, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.kv = kv

	a.tenants = repository.NewTenantStore(kv, cfg.Tables.Tenants)
	a.authInfo = repository.NewAuthInfoStore(kv, cfg.Tables.AuthInfo)
	a.mappings = repository.NewStackMappingStore(kv, cfg.Tables.TenantStackMapping)
	a.metadata = repository.NewStackMetadataStore(kv, cfg.Tables.StackMetadata)

	gateway, err := a.identityGateway()
	if err != nil {
		a.close()
		return nil, err
	}
	engine := a.pipelineEngine()
	clk := clock.New()

	resolver := identity.NewResolver(a.authInfo, a.mappings, gateway, log.Named("resolver"))
	users := identity.NewProvisioner(gateway, log.Named("provisioner"),
		identity.WithSuppressedInvitation(cfg.Identity.SuppressInvitation))
	trigger := pipeline.NewTrigger(engine, pipelineTable(cfg.Pipeline), clk, log.Named("trigger"))

	a.orchestrator = onboarding.NewOrchestrator(a.tenants, resolver, users, trigger, onboarding.NewValidator())
	a.bridge = pipeline.NewBridge(a.mappings, a.metadata, engine,
		cfg.Pipeline.StackName, cfg.Pipeline.Region, clk, log.Named("bridge"))
	return a, nil
}

// pipelineTable maps each dedicated-compute plan to its configured pipeline.
func pipelineTable(cfg config.PipelineConfig) map[model.Plan]string {
	return map[model.Plan]string{
		model.PlanStandard: cfg.Standard,
		model.PlanPremium:  cfg.Premium,
	}
}

func openStore(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) (kvstore.Store, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		store := kvstore.NewPostgresStore(db)
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate kv store: %w", err)
		}
		return store, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis connected", zap.String("addr", cfg.Store.RedisAddr))
		return kvstore.NewRedisStore(client, cfg.ServiceName+":"), nil
	case config.StoreBolt:
		return kvstore.OpenBoltStore(cfg.Store.BoltPath)
	case config.StoreMemory:
		log.Warn("Using in-memory store, data is lost on exit")
		return kvstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

func (a *app) identityGateway() (identity.Gateway, error) {
	switch a.cfg.Identity.Provider {
	case config.IdentityHTTP:
		return identity.NewHTTPGateway(a.cfg.Identity.BaseURL, a.cfg.Identity.Timeout,
			a.jwt, a.cfg.ServiceName, a.log.Named("identity")), nil
	case config.IdentityLocal:
		if a.db == nil {
			return nil, errors.New("local identity provider needs a database")
		}
		gw := identity.NewLocalGateway(a.db, a.log.Named("identity"))
		if err := database.MigrateModels(a.db, gw.Models()...); err != nil {
			return nil, err
		}
		return gw, nil
	}
	return nil, fmt.Errorf("unsupported identity provider %q", a.cfg.Identity.Provider)
}

func (a *app) pipelineEngine() pipeline.Engine {
	if a.cfg.Pipeline.EngineURL == "" {
		a.log.Warn("PIPELINE_ENGINE_URL not set, pipeline calls are only logged")
		return pipeline.NewLogEngine(a.log.Named("pipeline"))
	}
	return pipeline.NewHTTPEngine(a.cfg.Pipeline.EngineURL, a.cfg.Pipeline.Timeout,
		a.jwt, a.cfg.ServiceName, a.log.Named("pipeline"))
}

func (a *app) close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.log.Warn("Failed to close kv store", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.log.Warn("Failed to close database", zap.Error(err))
	}
}
