package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, StorageConfig{}, cfg.Storage)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.NotEqual(t, ArchiveConfig{}, cfg.Archive)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultStorageConfig(t *testing.T) {
	cfg := DefaultStorageConfig()
	assert.Equal(t, StorageBackendFile, cfg.Backend)
	assert.Equal(t, ".agenthub/assets", cfg.BasePath)
	assert.Equal(t, "100MB", cfg.MaxAssetSize)
	assert.Zero(t, cfg.DefaultTTL)
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig()
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, ".agenthub/assets.db", cfg.DSN())
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.AutoMigrate)
}

func TestDefaultArchiveConfig(t *testing.T) {
	cfg := DefaultArchiveConfig()
	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "agenthub", cfg.Namespace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "agenthub", cfg.ServiceName)
	assert.Equal(t, 0.1, cfg.SampleRate)
}
