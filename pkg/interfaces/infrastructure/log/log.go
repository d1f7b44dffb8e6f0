// Package log 定义PriceShield的日志接口
//
// 🎯 **设计目标**
// - 业务代码只依赖本接口，不直接依赖zap
// - 支持结构化字段（With）与格式化两种风格
// - CLI表格输出场景可整体静默控制台而不影响文件日志
package log

import "go.uber.org/zap"

// Logger 日志记录器接口
type Logger interface {
	// Debug 调试日志
	Debug(msg string)

	// Debugf 格式化调试日志
	Debugf(format string, args ...interface{})

	// Info 信息日志
	Info(msg string)

	// Infof 格式化信息日志
	Infof(format string, args ...interface{})

	// Warn 警告日志
	Warn(msg string)

	// Warnf 格式化警告日志
	Warnf(format string, args ...interface{})

	// Error 错误日志
	Error(msg string)

	// Errorf 格式化错误日志
	Errorf(format string, args ...interface{})

	// Fatal 致命日志，记录后退出进程
	Fatal(msg string)

	// Fatalf 格式化致命日志，记录后退出进程
	Fatalf(format string, args ...interface{})

	// With 返回附加了键值对字段的派生记录器
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 获取底层zap记录器（仅供基础设施层使用）
	GetZapLogger() *zap.Logger
}
