// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 migration 管理资产库 artifacts 表的 Schema 版本，基于 golang-migrate，
支持 PostgreSQL、MySQL 与 SQLite。

# 概述

各方言的 SQL 迁移文件通过 embed.FS 内嵌在二进制中，目录为
migrations/<dialect>/NNNNNN_name.{up,down}.sql。表结构与
artifacts.DBStore 的 gorm 模型一一对应；database.auto_migrate 关闭时，
部署方应先执行 agenthub migrate up。

SQLite 连接使用纯 Go 的 glebarez 驱动，与 gorm 侧共用同一驱动注册。

# 核心类型

  - Migrator / DefaultMigrator：Up、Down、Steps、Goto、Force、Version、
    Status、Info。
  - CLI：agenthub migrate 子命令的分发与表格输出。
  - NewMigratorFromConfig / NewMigratorFromDatabaseConfig / NewMigratorFromURL。
*/
package migration
