// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
Package main 提供 agenthub 命令行程序入口。

# 概述

agenthub 在本地处理 Agent 定义文档：解析与生成 markdown 方言，按
StrictExport / LenientMutate 校验，把定义与其工具 schema、知识库文档
打包为归档或从归档导入。资产保存在文件目录或数据库中（由
storage.backend 决定），数据库模式可以用 migrate 子命令管理。

# 子命令

  - parse / generate：文档与 YAML/JSON 树互转
  - validate：批量校验文档或树文件
  - export / export-batch：导出归档，批量导出受 archive.concurrency 限制
  - import：导入归档并输出重新生成的文档
  - assets add|list|cleanup：维护资产库
  - migrate：up、down、steps、goto、force、version、status、info

# 配置

所有命令都接受 --config 指定 YAML 文件，环境变量 AGENTHUB_* 覆盖文件
中的值。metrics.push_gateway 非空时，命令结束前把本次执行的指标推送
到 Pushgateway。
*/
package main
