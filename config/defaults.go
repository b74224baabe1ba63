// =============================================================================
// 📦 AgentHub 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log:       DefaultLogConfig(),
		Storage:   DefaultStorageConfig(),
		Database:  DefaultDatabaseConfig(),
		Archive:   DefaultArchiveConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultStorageConfig 返回默认资产存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:      StorageBackendFile,
		BasePath:     ".agenthub/assets",
		MaxAssetSize: "100MB",
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "agenthub",
		Password:        "",
		Name:            ".agenthub/assets.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		AutoMigrate:     true,
	}
}

// DefaultArchiveConfig 返回默认归档配置
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Author:      "",
		Version:     "1.0",
		NodeID:      1,
		Concurrency: 4,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "agenthub",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "agenthub",
		SampleRate:   0.1,
	}
}
