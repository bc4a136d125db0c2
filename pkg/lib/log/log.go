// Package log 提供 go-netbind 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，各组件通过 Logger(component) 获取
// 带组件名的 LazyLogger，日志输出目标和级别可在运行时切换。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	// level 全局日志级别，所有 handler 共享
	level = new(slog.LevelVar)

	outputMu sync.Mutex
)

// SetDefault 设置默认 logger
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Default 返回默认 logger
func Default() *slog.Logger {
	return slog.Default()
}

// New 创建文本格式 logger
func New(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: level}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSON 创建 JSON 格式的 logger
func NewJSON(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: level}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetOutput 设置日志输出目标
//
// 重新创建默认 logger，沿用当前全局级别。
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	slog.SetDefault(New(w, nil))
}

// SetOutputWithLevel 同时设置日志输出目标和级别
func SetOutputWithLevel(w io.Writer, lvl slog.Level) {
	level.Set(lvl)
	SetOutput(w)
}

// SetLevel 设置全局日志级别
//
// 只对通过本包创建的 handler 生效。
func SetLevel(lvl slog.Level) {
	level.Set(lvl)
}

// GetLevel 返回当前全局日志级别
func GetLevel() slog.Level {
	return level.Level()
}

// ParseLevel 解析日志级别名称
//
// 支持 debug/info/warn/warning/error，大小写不敏感。
func ParseLevel(name string) (slog.Level, bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		if strings.EqualFold(name, "warning") {
			return slog.LevelWarn, true
		}
		return slog.LevelInfo, false
	}
	return lvl, true
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标。
//
//	var logger = log.Logger("core/registry")
//	logger.Info("绑定已注册", "name", name)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) current() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.current().Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.current().Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.current().Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.current().Error(msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.current().DebugContext(ctx, msg, args...)
}

// InfoContext 带 context 的 Info 日志
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.current().InfoContext(ctx, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.current().With(args...)
}

// Component 返回组件名
func (l *LazyLogger) Component() string {
	return l.component
}

func init() {
	level.Set(slog.LevelInfo)
	slog.SetDefault(New(os.Stderr, nil))
}
