// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 declarative 定义 Agent 定义树的内存模型，以及对该模型的结构校验
与 YAML/JSON 文件读写。它是 markdown、archive 等上层包共享的最底层
数据契约，本身不做任何 I/O 以外的副作用。

# 核心类型

  - AgentNode：递归的 Agent 节点（名称、类型、执行模式、提示词、
    模型、工具、知识库、子 Agent）
  - ModelSpec / ToolSpec / FunctionSpec / KnowledgeBaseSpec：节点上的
    资源绑定
  - AgentType / ExecutionMode / ModelType / SchemaType / APIKeyType：
    封闭枚举，每个取值携带 code、名称与中文描述

# 结构校验

Validate 深度优先遍历，遇到第一处违规即返回带路径的 types.Error：

  - StrictExport：导出归档前使用，要求名称、类型、模式、模型别名、
    工具方法、知识库模型齐全
  - LenientMutate：保存编辑结果时使用，只检查枚举字段是否可识别

路径格式为 "Agent[root]-->Agent[child]"。

# 典型用法

	loader := declarative.NewTreeLoader()
	tree, err := loader.LoadFile("agent.yaml")

	if err := declarative.Validate(tree, declarative.RootPath(tree.Name), declarative.StrictExport); err != nil { ... }
*/
package declarative
