// Package interfaces 定义 go-netbind 公共接口
//
// 本文件定义受管套接字绑定（ManagedBinding）及其注册表接口。
package interfaces

import (
	"iter"
	"net/netip"
	"time"
)

// ============================================================================
//                              ManagedBinding 接口
// ============================================================================

// ManagedBinding 受管绑定
//
// 一个已（或将要）绑定到本地地址的服务端套接字，由注册表按名称跟踪。
type ManagedBinding interface {
	// SocketBindingName 返回绑定名称
	//
	// 空字符串表示未命名绑定，未命名绑定不会进入按名称索引的注册表。
	SocketBindingName() string

	// BindAddress 返回绑定地址
	//
	// 绑定前返回零值（IsValid() == false）。
	// 命名绑定返回操作系统实际分配的本地地址（端口 0 已解析）。
	BindAddress() netip.AddrPort

	// Close 关闭绑定并释放套接字
	Close() error
}

// Transport 绑定所使用的传输协议
type Transport string

const (
	// TransportUDP 数据报套接字
	TransportUDP Transport = "udp"

	// TransportTCP 流式（监听）套接字
	TransportTCP Transport = "tcp"
)

// String 返回传输协议名称
func (t Transport) String() string {
	return string(t)
}

// TransportBinding 可报告自身传输协议的绑定
type TransportBinding interface {
	ManagedBinding

	// Transport 返回传输协议
	Transport() Transport
}

// ============================================================================
//                              注册表接口
// ============================================================================

// ManagedBindingRegistry 受管绑定注册表
//
// 实现必须是并发安全的，注册/注销对同一名称线性一致。
type ManagedBindingRegistry interface {
	// RegisterBinding 注册绑定
	//
	// 同一实例重复注册是空操作。
	RegisterBinding(b ManagedBinding) error

	// UnregisterBinding 注销绑定
	//
	// 没有匹配的活动条目时返回 ErrBindingNotRegistered 类错误。
	UnregisterBinding(b ManagedBinding) error

	// ListActiveBindings 返回当前所有活动绑定的快照
	ListActiveBindings() []ManagedBinding

	// Bindings 返回基于快照的惰性序列
	Bindings() iter.Seq[ManagedBinding]

	// Len 返回活动绑定数量
	Len() int
}

// NamedBindingRegistry 按名称索引的注册表
type NamedBindingRegistry interface {
	ManagedBindingRegistry

	// Lookup 按名称查找活动绑定
	Lookup(name string) (ManagedBinding, error)

	// Entries 返回注册条目快照（含注册 ID 与时间）
	Entries() []BindingEntry
}

// UnnamedBindingRegistry 未命名绑定注册表
type UnnamedBindingRegistry interface {
	ManagedBindingRegistry

	// LookupByAddress 返回注册时绑定地址等于 addr 的所有绑定
	LookupByAddress(addr netip.AddrPort) []ManagedBinding
}

// BindingEntry 注册条目快照
type BindingEntry struct {
	// Binding 绑定实例
	Binding ManagedBinding

	// Name 注册时的绑定名称
	Name string

	// Address 注册时的绑定地址
	Address netip.AddrPort

	// RegistrationID 本次注册的唯一标识
	RegistrationID string

	// RegisteredAt 注册时间
	RegisteredAt time.Time
}

// ============================================================================
//                              注册表事件
// ============================================================================

// EvtBindingRegistered 绑定注册事件
type EvtBindingRegistered struct {
	Name           string
	Address        netip.AddrPort
	Transport      Transport
	RegistrationID string
	At             time.Time
}

// EvtBindingUnregistered 绑定注销事件
//
// Address 为注销时（套接字释放前）的绑定地址。
type EvtBindingUnregistered struct {
	Name           string
	Address        netip.AddrPort
	Transport      Transport
	RegistrationID string
	At             time.Time
}

// BindingObserver 注册表观察者
//
// 用于指标等旁路统计，回调在注册表锁内执行，必须是非阻塞的。
type BindingObserver interface {
	// OnRegistered 绑定注册成功
	OnRegistered(registry string, b ManagedBinding)

	// OnUnregistered 绑定注销成功
	OnUnregistered(registry string, b ManagedBinding)

	// OnDuplicate 名称冲突
	OnDuplicate(name string)
}

// BindFailureObserver 绑定失败观察者
type BindFailureObserver interface {
	// OnBindFailure 操作系统拒绝绑定
	OnBindFailure(transport Transport, reason string)
}

// ============================================================================
//                              错误定义
// ============================================================================

// 注册表错误
var (
	// ErrDuplicateBindingName 名称已被另一个活动绑定占用
	ErrDuplicateBindingName = bindingError("socket binding name already registered")

	// ErrBindingNotRegistered 没有匹配的活动注册条目
	ErrBindingNotRegistered = bindingError("socket binding not registered")

	// ErrBindingNotFound 按名称查找不到活动绑定
	ErrBindingNotFound = bindingError("socket binding not found")

	// ErrUnnamedBinding 未命名绑定不能进入按名称索引的注册表
	ErrUnnamedBinding = bindingError("socket binding has no name")

	// ErrNilBinding 绑定为 nil
	ErrNilBinding = bindingError("nil socket binding")

	// ErrRegistryClosed 注册表已关闭，不再接受注册
	ErrRegistryClosed = bindingError("socket binding registry closed")
)

// bindingError 绑定错误类型
type bindingError string

func (e bindingError) Error() string {
	return string(e)
}
