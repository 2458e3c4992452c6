package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iyhunko/product-catalog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config and .env lookups at files that do not exist.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.ConfigFileEnv, filepath.Join(dir, "missing.yaml"))
	t.Setenv(config.EnvFilePath, filepath.Join(dir, "missing.env"))
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(config.DBHostEnv, "localhost")
	t.Setenv(config.DBUserEnv, "user")
	t.Setenv(config.DBPassEnv, "pass")
	t.Setenv(config.DBNameEnv, "testdb")
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	setRequired(t)
	t.Setenv(config.DebugModeEnv, "true")
	t.Setenv(config.DBPortEnv, "5432")
	t.Setenv(config.DBDriverEnv, "postgres")
	t.Setenv(config.DBStatementTimeoutEnv, "30s")
	t.Setenv(config.DBMaxOpenConnsEnv, "4")
	t.Setenv(config.HTTPServerPortEnv, "8080")
	t.Setenv(config.MetricsServerPortEnv, "9090")
	t.Setenv(config.CatalogModifiedByEnv, "importer")
	t.Setenv(config.CatalogSeedExamplesEnv, "false")
	t.Setenv(config.SQSQueueURLEnv, "http://localhost:4566/000000000000/catalog-audit")

	conf, err := config.LoadFromEnv()
	require.NoError(t, err, "loading config should not return error")

	assert.True(t, conf.DebugMode, "DebugMode should be true")
	assert.Equal(t, "localhost", conf.Database.Host, "DB Host should be 'localhost'")
	assert.Equal(t, "user", conf.Database.User, "DB User should be 'user'")
	assert.Equal(t, "pass", conf.Database.Password, "DB Password should be 'pass'")
	assert.Equal(t, "testdb", conf.Database.Name, "DB Name should be 'testdb'")
	assert.Equal(t, "5432", conf.Database.Port, "DB Port should be '5432'")
	assert.Equal(t, "postgres", conf.Database.Driver)
	assert.Equal(t, 30*time.Second, conf.Database.StatementTimeout)
	assert.Equal(t, 4, conf.Database.MaxOpenConns)
	assert.Equal(t, "8080", conf.HTTPServer.Port, "HTTP Server Port should be '8080'")
	assert.Equal(t, "9090", conf.MetricsServer.Port, "Metrics Server Port should be '9090'")
	assert.Equal(t, "importer", conf.Catalog.ModifiedBy)
	assert.False(t, conf.Catalog.SeedExamples)
	assert.True(t, conf.AWS.Enabled())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	setRequired(t)

	conf, err := config.Load()
	require.NoError(t, err)

	assert.False(t, conf.DebugMode)
	assert.Equal(t, "5432", conf.Database.Port)
	assert.Equal(t, "pgx", conf.Database.Driver)
	assert.Equal(t, "disable", conf.Database.SSLMode)
	assert.Zero(t, conf.Database.StatementTimeout)
	assert.Equal(t, 10, conf.Database.MaxOpenConns)
	assert.Equal(t, "8080", conf.HTTPServer.Port)
	assert.Equal(t, "9090", conf.MetricsServer.Port)
	assert.Equal(t, "System", conf.Catalog.ModifiedBy)
	assert.True(t, conf.Catalog.SeedExamples)
	assert.Equal(t, time.Minute, conf.Catalog.StatsInterval)
	assert.Equal(t, 5*time.Second, conf.AuditRelay.Interval)
	assert.Equal(t, 100, conf.AuditRelay.BatchSize)
	assert.Equal(t, "us-east-1", conf.AWS.Region)
	assert.False(t, conf.AWS.Enabled(), "relay should be off without a queue")
}

func TestLoad_Layers(t *testing.T) {
	// given
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
db:
  host: yaml-host
  user: yaml-user
  name: yaml-db
  max_open_conns: 6
catalog:
  modified_by: yaml-user
  stats_interval: 2m
`), 0o600))
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DB_NAME=dotenv-db\n"), 0o600))
	t.Setenv(config.ConfigFileEnv, yamlPath)
	t.Setenv(config.EnvFilePath, envPath)
	t.Setenv(config.DBHostEnv, "env-host")
	// registers a restore of the original value, then clears it so the .env file can set it
	t.Setenv(config.DBNameEnv, "")
	require.NoError(t, os.Unsetenv(config.DBNameEnv))

	// when
	conf, err := config.Load()

	// then
	require.NoError(t, err)
	assert.Equal(t, "env-host", conf.Database.Host, "process env overrides yaml")
	assert.Equal(t, "dotenv-db", conf.Database.Name, ".env overrides yaml")
	assert.Equal(t, "yaml-user", conf.Database.User)
	assert.Equal(t, 6, conf.Database.MaxOpenConns)
	assert.Equal(t, "yaml-user", conf.Catalog.ModifiedBy)
	assert.Equal(t, 2*time.Minute, conf.Catalog.StatsInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"missing host", map[string]string{config.DBHostEnv: ""}, config.ErrMissingConfig},
		{"unknown driver", map[string]string{config.DBDriverEnv: "mysql"}, config.ErrInvalidConfig},
		{"single connection", map[string]string{config.DBMaxOpenConnsEnv: "1"}, config.ErrInvalidConfig},
		{"negative timeout", map[string]string{config.DBStatementTimeoutEnv: "-1s"}, config.ErrInvalidConfig},
		{"empty attribution", map[string]string{config.CatalogModifiedByEnv: ""}, config.ErrMissingConfig},
		{"zero stats interval", map[string]string{config.CatalogStatsIntervalEnv: "0s"}, config.ErrInvalidConfig},
		{"relay without batch", map[string]string{
			config.SQSQueueURLEnv:         "http://localhost:4566/000000000000/catalog-audit",
			config.AuditRelayBatchSizeEnv: "0",
		}, config.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setRequired(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := config.Load()

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("invalid port", func(t *testing.T) {
		isolate(t)
		setRequired(t)
		t.Setenv(config.HTTPServerPortEnv, "http")

		_, err := config.Load()

		assert.ErrorContains(t, err, "invalid port number")
	})
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"GetEnvAsBool_True", "true", false, true},
		{"GetEnvAsBool_False", "false", true, false},
		{"GetEnvAsBool_Invalid", "invalid", true, true},
		{"GetEnvAsBool_Empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV", tt.envValue)
			got := config.GetEnvAsBool("TEST_ENV", tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllNumbers(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]string
		wantErr bool
	}{
		{"AllNumbers_Valid", map[string]string{"key1": "123", "key2": "456", "key3": "789"}, false},
		{"AllNumbers_Invalid", map[string]string{"key1": "123", "key2": "abc", "key3": "789"}, true},
		{"AllNumbers_EmptyString", map[string]string{"key1": "123", "key2": "", "key3": "789"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.AllNumbers(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllNonEmpty(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]string
		wantErr bool
	}{
		{"AllNonEmpty_Valid", map[string]string{"key1": "host", "key2": "user", "key3": "pass"}, false},
		{"AllNonEmpty_EmptyString", map[string]string{"key1": "host", "key2": "", "key3": "pass"}, true},
		{"AllNonEmpty_AllEmpty", map[string]string{"key1": "", "key2": "", "key3": ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.AllNonEmpty(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
