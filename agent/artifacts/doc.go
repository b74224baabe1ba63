// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 artifacts 是宿主侧的资产存储，保存工具 schema、知识库文档与文档图片，
并作为归档导入导出的资产来源与落地点。

# 概述

Manager 以文件名为键对外提供资产，内部以 ID 区分版本：同名文件再次写入时
生成新版本，按名称查找总是返回最高的 ready 版本。Manager 实现了
archive.DocumentAssetReader 与 archive.DocumentAssetWriter，
因此可以直接传给 archive.Exporter 与 archive.Importer。

# 存储后端

  - FileStore：每个产物一个目录（data 与 metadata.json），外加全局 index.json，
    写入采用临时文件加 rename
  - DBStore：基于 gorm 的 artifacts 表，内容存于 data 列，
    支持 sqlite / postgres / mysql；表结构由 Migrate 或 internal/migration 创建

# 限制与清理

ManagerConfig.MaxSize 限制单个资产大小，超出时返回 ASSET_TOO_LARGE；
未知名称返回 ASSET_NOT_FOUND。设置 TTL 的产物由 Cleanup 删除，
Archive 则仅将其从名称查找中隐藏。
*/
package artifacts
