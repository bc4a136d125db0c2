package netbind

import (
	"errors"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/binding"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 服务器生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 服务器未启动
	ErrNotStarted = errors.New("server not started")

	// ErrAlreadyStarted 服务器已启动
	ErrAlreadyStarted = errors.New("server already started")

	// ErrServerStopped 服务器已停止，不能再次启动
	ErrServerStopped = errors.New("server stopped")

	// ErrServerClosed 服务器已关闭
	ErrServerClosed = errors.New("server closed")

	// ────────────────────────────────────────────────────────────────────────
	// 注册表错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrDuplicateBindingName 名称已被另一个活动绑定占用
	ErrDuplicateBindingName = pkgif.ErrDuplicateBindingName

	// ErrBindingNotRegistered 没有匹配的活动注册条目
	ErrBindingNotRegistered = pkgif.ErrBindingNotRegistered

	// ErrBindingNotFound 按名称查找不到活动绑定
	ErrBindingNotFound = pkgif.ErrBindingNotFound

	// ErrUnnamedBinding 未命名绑定不能进入按名称索引的注册表
	ErrUnnamedBinding = pkgif.ErrUnnamedBinding

	// ErrRegistryClosed 注册表已关闭，不再接受注册
	ErrRegistryClosed = pkgif.ErrRegistryClosed

	// ────────────────────────────────────────────────────────────────────────
	// 绑定错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrBindFailed 操作系统拒绝绑定，具体原因见 *BindError
	ErrBindFailed = binding.ErrBindFailed

	// ErrAlreadyBound 套接字已绑定
	ErrAlreadyBound = binding.ErrAlreadyBound

	// ErrSocketClosed 套接字已关闭
	ErrSocketClosed = binding.ErrSocketClosed

	// ErrNotBound 套接字尚未绑定
	ErrNotBound = binding.ErrNotBound

	// ErrManagerClosed 绑定管理器已关闭
	ErrManagerClosed = binding.ErrManagerClosed

	// ErrUnknownSocketBinding 配置中没有该名称的套接字绑定
	ErrUnknownSocketBinding = binding.ErrUnknownSocketBinding

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = config.ErrInvalidConfig
)

// BindError 操作系统绑定失败
type BindError = binding.BindError

// IsAddressInUse 判断错误是否为地址已被占用
func IsAddressInUse(err error) bool {
	return binding.IsAddressInUse(err)
}
