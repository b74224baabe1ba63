// Copyright 2026 AgentFlow Authors
// Use of this source code is governed by the project license.

/*
包 database 打开资产库的 gorm 连接并管理连接池。

# 概述

Open 依据 config.DatabaseConfig 选择方言：sqlite（纯 Go 的 glebarez
驱动）、postgres、mysql。PoolManager 配置连接池上限并在后台定时
PingContext 探活，探活成功后把打开与空闲连接数交给 StatsRecorder
（通常是 metrics.Collector）。

# 核心类型

  - PoolManager：DB、Ping、Stats、GetStats、Close。
  - PoolConfig：连接数、生命周期、健康检查间隔；PoolConfigFrom 从
    DatabaseConfig 派生。
  - StatsRecorder：连接数采样接收方。
*/
package database
