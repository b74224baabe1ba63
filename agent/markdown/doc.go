// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 markdown 实现 Agent 定义的 Markdown 方言：把一份 Markdown 文档
解析为 declarative.AgentNode 树，或把一棵树渲染回文档。

# 文档结构

每个 Agent 对应一个标题，标题层级即树深度，标题文本的最后一个词为
Agent 名称（"# 1. Dispatcher" 的名称是 Dispatcher）。标题之后、下一个
同级或更高级标题之前的内容描述该 Agent：

  - 引用块：Agent 类型，如 "> 分发"
  - "- 模式: 并行" / "- 描述: ..."：执行模式与描述
  - 围栏代码块：提示词
  - "- 大模型" / "- 知识库" / "- 工具"：带子列表的资源绑定

标签同时接受半角与全角冒号。列表中出现 "无" 表示空集合。

# 解析流程

Tokenize 借助 goldmark 把源文本切成 Block 序列（标题、引用、代码、
列表、其他），Parse 在 Block 序列上做递归下降。解析从不因结构缺失
而失败，唯一错误是文档没有一级标题；无法识别的枚举值保持为空，由
declarative.Validate 决定是否拒绝。

# 生成

Generate 是 Parse 的逆过程。知识库与工具段总是输出，空集合写作
"无"；提示词的围栏长度会自动超过提示词中最长的波浪线序列。
*/
package markdown
