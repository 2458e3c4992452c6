package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// DBDriverEnv selects the database/sql driver: "pgx" or "postgres".
	DBDriverEnv = "DB_DRIVER"

	// DBSSLModeEnv is the environment variable for the postgres sslmode.
	DBSSLModeEnv = "DB_SSL_MODE"

	// DBStatementTimeoutEnv bounds every statement, e.g. "30s". Zero disables it.
	DBStatementTimeoutEnv = "DB_STATEMENT_TIMEOUT"

	// DBMaxOpenConnsEnv is the environment variable for the connection pool size.
	DBMaxOpenConnsEnv = "DB_MAX_OPEN_CONNS"

	// HTTPServerPortEnv is the environment variable for the ops HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// CatalogModifiedByEnv is the attribution written to history records.
	CatalogModifiedByEnv = "CATALOG_MODIFIED_BY"

	// CatalogSeedExamplesEnv enables seeding example products into an empty catalog.
	CatalogSeedExamplesEnv = "CATALOG_SEED_EXAMPLES"

	// CatalogStatsIntervalEnv is how often the statistics snapshot is recomputed.
	CatalogStatsIntervalEnv = "CATALOG_STATS_INTERVAL"

	// AuditRelayIntervalEnv is how often new history records are relayed to SQS.
	AuditRelayIntervalEnv = "AUDIT_RELAY_INTERVAL"

	// AuditRelayBatchSizeEnv is the maximum number of history records relayed per batch.
	AuditRelayBatchSizeEnv = "AUDIT_RELAY_BATCH_SIZE"

	// LocalhostEnv is the constant for localhost.
	LocalhostEnv = "localhost"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// ConfigFileEnv is the environment variable for the optional YAML config file.
	ConfigFileEnv = "CONFIG_FILE"

	// DefaultConfigFile is the default path to the YAML config file.
	DefaultConfigFile = "catalog.yaml"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"
)

const (
	driverPgx      = "pgx"
	driverPostgres = "postgres"
	minOpenConns   = 2
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid config data")
)

// envKeys maps environment variables to koanf key paths. The same paths are used in the YAML file.
var envKeys = map[string]string{
	DebugModeEnv:            "debug_mode",
	DBHostEnv:               "db.host",
	DBPortEnv:               "db.port",
	DBUserEnv:               "db.user",
	DBPassEnv:               "db.password",
	DBNameEnv:               "db.name",
	DBDriverEnv:             "db.driver",
	DBSSLModeEnv:            "db.ssl_mode",
	DBStatementTimeoutEnv:   "db.statement_timeout",
	DBMaxOpenConnsEnv:       "db.max_open_conns",
	HTTPServerPortEnv:       "http_server.port",
	MetricsServerPortEnv:    "metrics_server.port",
	CatalogModifiedByEnv:    "catalog.modified_by",
	CatalogSeedExamplesEnv:  "catalog.seed_examples",
	CatalogStatsIntervalEnv: "catalog.stats_interval",
	AuditRelayIntervalEnv:   "audit_relay.interval",
	AuditRelayBatchSizeEnv:  "audit_relay.batch_size",
	AWSRegionEnv:            "aws.region",
	AWSEndpointEnv:          "aws.endpoint",
	SQSQueueURLEnv:          "aws.sqs_queue_url",
}

var defaults = map[string]any{
	"debug_mode":             false,
	"db.port":                "5432",
	"db.driver":              driverPgx,
	"db.ssl_mode":            "disable",
	"db.statement_timeout":   "0s",
	"db.max_open_conns":      10,
	"http_server.port":       "8080",
	"metrics_server.port":    "9090",
	"catalog.modified_by":    "System",
	"catalog.seed_examples":  true,
	"catalog.stats_interval": "1m",
	"audit_relay.interval":   "5s",
	"audit_relay.batch_size": 100,
	"aws.region":             "us-east-1",
}

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Database      DB
	HTTPServer    Server
	MetricsServer Server
	Catalog       Catalog
	AuditRelay    AuditRelay
	AWS           AWSConfig
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// DB represents database configuration settings.
type DB struct {
	Host             string
	User             string
	Password         string
	Name             string
	Port             string
	Driver           string
	SSLMode          string
	StatementTimeout time.Duration
	MaxOpenConns     int
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

// Catalog holds the catalog store settings.
type Catalog struct {
	ModifiedBy    string
	SeedExamples  bool
	StatsInterval time.Duration
}

// AuditRelay holds the history-to-SQS relay settings.
type AuditRelay struct {
	Interval  time.Duration
	BatchSize int
}

// Enabled reports whether a queue is configured for audit messages.
func (a AWSConfig) Enabled() bool {
	return a.SQSQueueURL != ""
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Validate database configuration
	if err := allNonEmpty(map[string]string{
		DBHostEnv: c.Database.Host,
		DBUserEnv: c.Database.User,
		DBNameEnv: c.Database.Name,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	if c.Database.Driver != driverPgx && c.Database.Driver != driverPostgres {
		return fmt.Errorf("%w: %s must be %q or %q, got %q", ErrInvalidConfig, DBDriverEnv, driverPgx, driverPostgres, c.Database.Driver)
	}

	// the store pins one connection for its lifetime, health checks need another
	if c.Database.MaxOpenConns < minOpenConns {
		return fmt.Errorf("%w: %s must be at least %d", ErrInvalidConfig, DBMaxOpenConnsEnv, minOpenConns)
	}

	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrInvalidConfig, DBStatementTimeoutEnv)
	}

	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	// Validate port numbers
	if err := allNumbers(map[string]string{
		DBPortEnv:            c.Database.Port,
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	// Validate catalog configuration
	if err := allNonEmpty(map[string]string{
		CatalogModifiedByEnv: c.Catalog.ModifiedBy,
	}); err != nil {
		return fmt.Errorf("catalog configuration incomplete: %w", err)
	}

	if c.Catalog.StatsInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, CatalogStatsIntervalEnv)
	}

	// Validate audit relay configuration, only used when a queue is configured
	if c.AWS.Enabled() {
		if c.AuditRelay.Interval <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, AuditRelayIntervalEnv)
		}
		if c.AuditRelay.BatchSize <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, AuditRelayBatchSizeEnv)
		}
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// envKey translates a known environment variable into its koanf path and drops the rest.
func envKey(name string) string {
	return envKeys[name]
}

// Load builds the configuration from defaults, the optional YAML file, the .env file
// and the process environment, in increasing priority, and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load config defaults: %w", err)
	}

	configFile := os.Getenv(ConfigFileEnv)
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
		slog.Debug("config file not found, skipping", slog.String("path", configFile))
	}

	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	if err := ApplyEnvFile(envPath); err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	conf := fromKoanf(k)
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
// DEBUG_MODE falls back to false when it does not parse as a boolean.
func LoadFromEnv() (*Config, error) {
	conf, err := Load()
	if err != nil {
		return nil, err
	}
	conf.DebugMode = getEnvAsBool(DebugModeEnv, conf.DebugMode)
	return conf, nil
}

func fromKoanf(k *koanf.Koanf) *Config {
	return &Config{
		DebugMode: k.Bool("debug_mode"),
		Database: DB{
			Host:             k.String("db.host"),
			User:             k.String("db.user"),
			Password:         k.String("db.password"),
			Name:             k.String("db.name"),
			Port:             k.String("db.port"),
			Driver:           k.String("db.driver"),
			SSLMode:          k.String("db.ssl_mode"),
			StatementTimeout: k.Duration("db.statement_timeout"),
			MaxOpenConns:     k.Int("db.max_open_conns"),
		},
		HTTPServer: Server{
			Port: k.String("http_server.port"),
		},
		MetricsServer: Server{
			Port: k.String("metrics_server.port"),
		},
		Catalog: Catalog{
			ModifiedBy:    k.String("catalog.modified_by"),
			SeedExamples:  k.Bool("catalog.seed_examples"),
			StatsInterval: k.Duration("catalog.stats_interval"),
		},
		AuditRelay: AuditRelay{
			Interval:  k.Duration("audit_relay.interval"),
			BatchSize: k.Int("audit_relay.batch_size"),
		},
		AWS: AWSConfig{
			Region:      k.String("aws.region"),
			Endpoint:    k.String("aws.endpoint"),
			SQSQueueURL: k.String("aws.sqs_queue_url"),
		},
	}
}
