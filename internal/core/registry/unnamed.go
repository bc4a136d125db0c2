package registry

import (
	"fmt"
	"iter"
	"net/netip"
	"slices"
	"sync"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// ============================================================================
//                              UnnamedRegistry 实现
// ============================================================================

// UnnamedRegistry 未命名绑定注册表
//
// 绑定按实例跟踪，并按注册时的绑定地址建立索引。注销时使用注册时记录的
// 地址清理索引，因此即使套接字随后被释放也不会遗留索引项。
type UnnamedRegistry struct {
	mu       sync.RWMutex
	bindings map[pkgif.ManagedBinding]*entry
	byAddr   map[netip.AddrPort]map[pkgif.ManagedBinding]struct{}
	closed   bool

	notifier *notifier
}

// 确保实现接口
var _ pkgif.UnnamedBindingRegistry = (*UnnamedRegistry)(nil)

// NewUnnamedRegistry 创建未命名绑定注册表
func NewUnnamedRegistry(opts ...Option) (*UnnamedRegistry, error) {
	n, err := newNotifier(KindUnnamed, newOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("create unnamed registry: %w", err)
	}
	return &UnnamedRegistry{
		bindings: make(map[pkgif.ManagedBinding]*entry),
		byAddr:   make(map[netip.AddrPort]map[pkgif.ManagedBinding]struct{}),
		notifier: n,
	}, nil
}

// RegisterBinding 注册绑定，同一实例重复注册为空操作
//
// 关闭后返回 ErrRegistryClosed。
func (r *UnnamedRegistry) RegisterBinding(b pkgif.ManagedBinding) error {
	if b == nil {
		return ErrNilBinding
	}
	addr := b.BindAddress()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: unnamed binding %s", ErrRegistryClosed, addr)
	}
	if _, ok := r.bindings[b]; ok {
		return nil
	}

	e := r.notifier.newEntry(b, addr)
	r.bindings[b] = e

	set, ok := r.byAddr[addr]
	if !ok {
		set = make(map[pkgif.ManagedBinding]struct{})
		r.byAddr[addr] = set
	}
	set[b] = struct{}{}

	r.notifier.onRegistered(e)
	logger.Debug("未命名绑定已注册", "addr", addr, "registrationID", e.regID)
	return nil
}

// UnregisterBinding 注销绑定
func (r *UnnamedRegistry) UnregisterBinding(b pkgif.ManagedBinding) error {
	if b == nil {
		return ErrNilBinding
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.bindings[b]
	if !ok {
		return fmt.Errorf("%w: unnamed binding", ErrBindingNotRegistered)
	}

	delete(r.bindings, b)
	if set, ok := r.byAddr[e.address]; ok {
		delete(set, b)
		if len(set) == 0 {
			delete(r.byAddr, e.address)
		}
	}

	r.notifier.onUnregistered(e, e.address)
	logger.Debug("未命名绑定已注销", "addr", e.address, "registrationID", e.regID)
	return nil
}

// LookupByAddress 返回注册时绑定地址等于 addr 的所有绑定
func (r *UnnamedRegistry) LookupByAddress(addr netip.AddrPort) []pkgif.ManagedBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byAddr[addr]
	out := make([]pkgif.ManagedBinding, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}

// ListActiveBindings 返回所有活动绑定的快照
func (r *UnnamedRegistry) ListActiveBindings() []pkgif.ManagedBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pkgif.ManagedBinding, 0, len(r.bindings))
	for b := range r.bindings {
		out = append(out, b)
	}
	return out
}

// Bindings 返回基于调用时快照的惰性序列
func (r *UnnamedRegistry) Bindings() iter.Seq[pkgif.ManagedBinding] {
	return slices.Values(r.ListActiveBindings())
}

// Len 返回活动绑定数量
func (r *UnnamedRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Close 拒绝后续注册并关闭事件发射器，幂等
func (r *UnnamedRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	n := len(r.bindings)
	r.mu.Unlock()

	if n > 0 {
		logger.Warn("未命名注册表关闭时仍有活动绑定", "count", n)
	}
	return r.notifier.close()
}
