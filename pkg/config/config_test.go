package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("tenant-onboarding")
	require.NoError(t, err)

	assert.Equal(t, "tenant-onboarding", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, IdentityLocal, cfg.Identity.Provider)
	assert.Equal(t, "Tenants", cfg.Tables.Tenants)
	assert.Equal(t, "TenantStackMapping", cfg.Tables.TenantStackMapping)
	assert.Equal(t, "tenant-onboarding-premium", cfg.Pipeline.Premium)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
	assert.True(t, cfg.NeedsDatabase())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Bolt")
	t.Setenv("IDENTITY_PROVIDER", "http")
	t.Setenv("IDENTITY_SUPPRESS_INVITATION", "true")
	t.Setenv("PIPELINE_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("DB_LOG_LEVEL", "silent")

	cfg, err := Load("svc")
	require.NoError(t, err)

	assert.Equal(t, StoreBolt, cfg.Store.Backend)
	assert.Equal(t, IdentityHTTP, cfg.Identity.Provider)
	assert.True(t, cfg.Identity.SuppressInvitation)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 4, cfg.Store.RedisDB)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.False(t, cfg.NeedsDatabase())
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "dynamo")

	_, err := Load("svc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_LocalIdentityNeedsPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("IDENTITY_PROVIDER", "local")

	_, err := Load("svc")
	require.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
