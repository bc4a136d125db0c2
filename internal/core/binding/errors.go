package binding

import (
	"errors"
	"fmt"
	"net/netip"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrAlreadyBound 套接字已绑定
	ErrAlreadyBound = errors.New("socket already bound")

	// ErrSocketClosed 套接字已关闭
	ErrSocketClosed = errors.New("socket closed")

	// ErrNotBound 套接字尚未绑定
	ErrNotBound = errors.New("socket not bound")

	// ErrInvalidAddress 绑定地址无效
	ErrInvalidAddress = errors.New("invalid bind address")

	// ErrNilRegistry 未提供注册表
	ErrNilRegistry = errors.New("nil binding registry")

	// ErrBindFailed 操作系统拒绝绑定
	ErrBindFailed = errors.New("bind failed")

	// ErrManagerClosed 绑定管理器已关闭
	ErrManagerClosed = errors.New("socket binding manager closed")

	// ErrUnknownSocketBinding 配置中没有该名称的套接字绑定
	ErrUnknownSocketBinding = errors.New("unknown socket binding")
)

// 绑定失败原因
const (
	// ReasonAddressInUse 地址已被占用
	ReasonAddressInUse = "address-in-use"

	// ReasonPermissionDenied 无权限（例如非特权进程绑定低端口）
	ReasonPermissionDenied = "permission-denied"

	// ReasonAddressNotAvailable 地址不属于本机
	ReasonAddressNotAvailable = "address-not-available"

	// ReasonOther 其他原因
	ReasonOther = "other"
)

// BindError 操作系统绑定失败
//
// errors.Is(err, ErrBindFailed) 恒为 true，底层系统错误可通过 Unwrap 获取。
type BindError struct {
	// Op 操作名
	Op string

	// Transport 传输协议
	Transport pkgif.Transport

	// Name 绑定名称（未命名为空）
	Name string

	// Addr 请求的绑定地址
	Addr netip.AddrPort

	// Reason 失败原因分类
	Reason string

	// Err 底层错误
	Err error
}

// Error 实现 error 接口
func (e *BindError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("%s %s %s %s (%s): %v", e.Op, e.Transport, name, e.Addr, e.Reason, e.Err)
}

// Unwrap 返回底层错误
func (e *BindError) Unwrap() error {
	return e.Err
}

// Is 匹配 ErrBindFailed
func (e *BindError) Is(target error) bool {
	return target == ErrBindFailed
}

// newBindError 创建 BindError 并分类失败原因
func newBindError(op string, transport pkgif.Transport, name string, addr netip.AddrPort, err error) *BindError {
	return &BindError{
		Op:        op,
		Transport: transport,
		Name:      name,
		Addr:      addr,
		Reason:    classifyBindError(err),
		Err:       err,
	}
}

// IsAddressInUse 是否为地址占用导致的绑定失败
func IsAddressInUse(err error) bool {
	var be *BindError
	return errors.As(err, &be) && be.Reason == ReasonAddressInUse
}
