// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 集中配置 TracerProvider 与 MeterProvider，并通过 Tracer 为定义服务提供 span。
// 遥测禁用时使用 noop 实现，不连接任何外部服务。
package telemetry
