// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供全模块共享的结构化错误。

# 概述

types 是最底层的公共包，不依赖任何内部包。解析、校验、归档与资产库
返回的错误都是 *Error，调用方通过 IsCode / GetErrorCode 判断错误类别，
不需要解析错误文本。

# 错误码

  - ErrEmptyDocument：方言文档缺少一级标题，其余格式问题按宽松规则跳过
  - ErrValidation：结构校验，Path 定位节点，Field / Allowed 描述字段
  - ErrArchiveFormat：归档格式
  - ErrAssetIO、ErrAssetNotFound、ErrAssetTooLarge：资产读写

# 使用示例

	err := types.NewError(types.ErrValidation, "type is missing").
		WithPath("Agent[root]").
		WithField("type", "普通", "分发")
	if types.IsCode(err, types.ErrValidation) { ... }
*/
package types
