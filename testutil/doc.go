// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供各包测试共享的辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 归档辅助: ReadZip 按写入顺序读出条目，BuildZip 构造任意归档
  - 数据工具: AssertJSONEqual / MustJSON / MustParseJSON / MustParseMarkdown

# 子包

  - testutil/mocks: MockAssetStore，内存资产库，记录写入与文档关联，
    支持错误注入
  - testutil/fixtures: 预置 Agent 定义树、模型、工具、知识库及其资产

# 使用示例

	ctx := testutil.TestContext(t)
	store := mocks.NewMockAssetStore().WithAsset("weather.json", []byte(fixtures.WeatherSchema))
	res, err := archive.NewExporter(nil, nil).Export(ctx, fixtures.DispatcherTree(), meta, store)
*/
package testutil
