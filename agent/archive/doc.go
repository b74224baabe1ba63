// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 archive 负责 Agent 定义树与可移植 zip 归档之间的双向转换，
用于在不同部署之间导入导出 Agent。归档内资源使用 snowflake ID
寻址，同一次导出中相同的模型、工具、知识库只写一份。

# 归档布局

	metadata.json                               归档元数据
	<rootName>.json                             根 Agent 描述
	multiagent/<id>.json                        子 Agent 描述
	models/<id>.json                            模型描述
	tools/<id>.json                             工具描述（内联 schema 文稿）
	knowledge_bases/<kbId>/metadata.json        知识库描述
	knowledge_bases/<kbId>/<docId>/<file>       文档内容
	knowledge_bases/<kbId>/<docId>/metadata.json 文档元数据
	knowledge_bases/<kbId>/<docId>/imgs/<img>   文档图片

# 导出

Exporter.Export 先以 StrictExport 校验整棵树，再在内存中组装归档，
只有全部写入成功才返回结果。去重表按调用创建：

  - 模型：name|alias|apiKey|baseUrl|type
  - 工具：name|schemaFileName|schemaType
  - 知识库：名称

工具方法以 base64(method + ":" + name) 作为 functionId，空方法写作 null。

# 导入

Importer.Import 分两个阶段：

 1. 遍历 zip 条目，按路径分拣到各查找表，并通过 AssetWriter 写入
    schema、文档、图片
 2. 在内存中关联文档元数据，再自顶向下解析根描述，重建 AgentNode 树

格式问题返回 ARCHIVE_FORMAT，引用缺失或循环返回带路径的
VALIDATION_FAILED，资产读写失败返回 ASSET_IO。

# 并发

Exporter 与 Importer 可被多个 goroutine 共享；每次调用持有独立的
去重表与查找表，snowflake 节点自身带锁。
*/
package archive
