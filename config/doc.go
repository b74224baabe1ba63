// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 config 提供 AgentHub 的配置加载。

# 概述

Loader 以 Builder 模式组装配置，按 默认值 → YAML 文件 → 环境变量
的顺序逐层覆盖。环境变量键由前缀、段名与字段 env tag 拼接而成，
例如 AGENTHUB_STORAGE_MAX_ASSET_SIZE。

# 配置段

  - log：zap 日志级别、格式、输出
  - storage：资产存储后端（file 或 database）、根目录、单文件上限
  - database：sqlite / postgres / mysql 连接参数与连接池
  - archive：metadata.json 作者与版本、snowflake 节点号、批量导出并发
  - metrics：Prometheus 命名空间
  - telemetry：OTLP 端点与采样率

Config.Validate 汇总所有问题后一次性返回。
*/
package config
