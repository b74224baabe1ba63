// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖定义操作、归档、
资产写入与数据库连接四个维度。

# 概述

Collector 通过 promauto.With(reg) 注册指标，调用方可传入独立的
Registry（测试或多实例场景），传 nil 时使用默认 Registerer。

# 主要指标

  - operations_total / operation_duration_seconds：按 operation 与
    status 分组的 parse、generate、validate、export、import 调用
  - archive_entries / archive_size_bytes：按 direction 分组的归档规模
  - archive_dedup_hits_total / archive_missing_assets_total：导出去重与缺失资产
  - assets_written_total / asset_bytes_total：按 kind 分组的资产写入
  - db_connections_open / db_connections_idle / db_query_duration_seconds
*/
package metrics
