// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 exchange 是 Agent 定义交换的服务层。

Service 把 markdown 解析、生成、校验以及 archive 导入导出串在一起，
每次操作都会开一个 "agenthub.<op>" span，并在配置了 metrics.Collector
时记录耗时、结果和归档统计。

  - ParseMarkdown / GenerateMarkdown / Validate
  - Export / ExportMarkdown：导出时按 StrictExport 校验
  - ImportArchive：写入资产后重新生成文档文本
*/
package exchange
