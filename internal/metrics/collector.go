// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 操作指标
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// 归档指标
	archiveEntries   *prometheus.HistogramVec
	archiveBytes     *prometheus.HistogramVec
	archiveDedupHits prometheus.Counter
	missingAssets    prometheus.Counter

	// 资产指标
	assetsWritten *prometheus.CounterVec
	assetBytes    *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbQueryDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器；reg 为 nil 时注册到 prometheus.DefaultRegisterer
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.operationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of definition operations",
		},
		[]string{"operation", "status"},
	)

	c.operationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Definition operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	c.archiveEntries = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_entries",
			Help:      "Number of entries per archive",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"direction"}, // export, import
	)

	c.archiveBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_size_bytes",
			Help:      "Archive size in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"direction"},
	)

	c.archiveDedupHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dedup_hits_total",
			Help:      "Resources reused instead of rewritten during export",
		},
	)

	c.missingAssets = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_missing_assets_total",
			Help:      "Referenced assets skipped during export because the host has no such file",
		},
	)

	c.assetsWritten = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_written_total",
			Help:      "Total number of assets written to the host store",
		},
		[]string{"kind"},
	)

	c.assetBytes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Total bytes written to the host store",
		},
		[]string{"kind"},
	)

	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.dbQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 操作指标记录
// =============================================================================

// RecordOperation 记录一次 parse / generate / validate / export / import 调用
func (c *Collector) RecordOperation(operation string, err error, duration time.Duration) {
	c.operationsTotal.WithLabelValues(operation, status(err)).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// =============================================================================
// 📦 归档指标记录
// =============================================================================

// RecordExport 记录一次成功导出
func (c *Collector) RecordExport(entries, dedupHits, missing, size int) {
	c.archiveEntries.WithLabelValues("export").Observe(float64(entries))
	c.archiveBytes.WithLabelValues("export").Observe(float64(size))
	c.archiveDedupHits.Add(float64(dedupHits))
	c.missingAssets.Add(float64(missing))
}

// RecordImport 记录一次成功导入
func (c *Collector) RecordImport(entries, size int) {
	c.archiveEntries.WithLabelValues("import").Observe(float64(entries))
	c.archiveBytes.WithLabelValues("import").Observe(float64(size))
}

// RecordAssetWrite 记录资产写入
func (c *Collector) RecordAssetWrite(kind string, size int) {
	c.assetsWritten.WithLabelValues(kind).Inc()
	c.assetBytes.WithLabelValues(kind).Add(float64(size))
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
