package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreBolt     = "bolt"
	StoreMemory   = "memory"
)

// Identity providers
const (
	IdentityLocal = "local"
	IdentityHTTP  = "http"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// JWTConfig holds JWT configuration for service tokens
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
	Issuer          string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// StoreConfig selects and configures the key-value backend
type StoreConfig struct {
	Backend       string
	BoltPath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TableConfig names the four control-plane tables
type TableConfig struct {
	Tenants            string
	AuthInfo           string
	TenantStackMapping string
	StackMetadata      string
}

// IdentityConfig configures the identity provider gateway
type IdentityConfig struct {
	Provider           string
	BaseURL            string
	SuppressInvitation bool
	Timeout            time.Duration
}

// PipelineConfig configures the provisioning pipeline engine
type PipelineConfig struct {
	EngineURL string
	Standard  string
	Premium   string
	Timeout   time.Duration
	StackName string
	Region    string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Store       StoreConfig
	Tables      TableConfig
	Identity    IdentityConfig
	Pipeline    PipelineConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "tenant_onboarding"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "onboardingsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 1),
			Issuer:          getEnv("JWT_ISSUER", serviceName),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
			BoltPath:      getEnv("BOLT_PATH", "data/onboarding.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Tables: TableConfig{
			Tenants:            getEnv("TENANT_TABLE", "Tenants"),
			AuthInfo:           getEnv("AUTH_INFO_TABLE", "AuthInfo"),
			TenantStackMapping: getEnv("TENANT_STACK_MAPPING_TABLE", "TenantStackMapping"),
			StackMetadata:      getEnv("STACK_METADATA_TABLE", "StackMetadata"),
		},
		Identity: IdentityConfig{
			Provider:           strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityLocal)),
			BaseURL:            getEnv("IDENTITY_BASE_URL", "http://localhost:8090"),
			SuppressInvitation: getEnvAsBool("IDENTITY_SUPPRESS_INVITATION", false),
			Timeout:            getEnvAsDuration("IDENTITY_TIMEOUT", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			EngineURL: getEnv("PIPELINE_ENGINE_URL", ""),
			Standard:  getEnv("PIPELINE_STANDARD", "tenant-onboarding-standard"),
			Premium:   getEnv("PIPELINE_PREMIUM", "tenant-onboarding-premium"),
			Timeout:   getEnvAsDuration("PIPELINE_TIMEOUT", 10*time.Second),
			StackName: getEnv("STACK_NAME", "eks-saas-stack"),
			Region:    getEnv("REGION", "us-east-1"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StorePostgres, StoreRedis, StoreBolt, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Identity.Provider {
	case IdentityLocal, IdentityHTTP:
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	if c.Identity.Provider == IdentityLocal && c.Store.Backend != StorePostgres {
		return fmt.Errorf("IDENTITY_PROVIDER=local requires STORE_BACKEND=postgres")
	}
	return nil
}

// NeedsDatabase reports whether a postgres connection has to be opened
func (c *Config) NeedsDatabase() bool {
	return c.Store.Backend == StorePostgres || c.Identity.Provider == IdentityLocal
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_backend", c.Store.Backend),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("identity_provider", c.Identity.Provider),
		zap.Bool("pipeline_engine_configured", c.Pipeline.EngineURL != ""),
		zap.String("stack_name", c.Pipeline.StackName),
		zap.String("region", c.Pipeline.Region),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
