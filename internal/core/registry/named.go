package registry

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sync"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("core/registry")

// ============================================================================
//                              NamedRegistry 实现
// ============================================================================

// NamedRegistry 按名称索引的受管绑定注册表
type NamedRegistry struct {
	mu       sync.RWMutex
	bindings map[string]*entry
	closed   bool

	notifier *notifier
}

// 确保实现接口
var _ pkgif.NamedBindingRegistry = (*NamedRegistry)(nil)

// NewNamedRegistry 创建按名称索引的注册表
func NewNamedRegistry(opts ...Option) (*NamedRegistry, error) {
	n, err := newNotifier(KindNamed, newOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("create named registry: %w", err)
	}
	return &NamedRegistry{
		bindings: make(map[string]*entry),
		notifier: n,
	}, nil
}

// RegisterBinding 注册命名绑定
//
// 名称已映射到另一个活动绑定时返回 ErrDuplicateBindingName；
// 同一实例重复注册为空操作。关闭后返回 ErrRegistryClosed。
func (r *NamedRegistry) RegisterBinding(b pkgif.ManagedBinding) error {
	if b == nil {
		return ErrNilBinding
	}
	name := b.SocketBindingName()
	if name == "" {
		return ErrUnnamedBinding
	}
	addr := b.BindAddress()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %s", ErrRegistryClosed, name)
	}
	if existing, ok := r.bindings[name]; ok {
		if existing.binding == b {
			return nil
		}
		r.notifier.onDuplicate(name)
		logger.Debug("绑定名称冲突", "name", name, "existing", existing.address, "rejected", addr)
		return fmt.Errorf("%w: %s", ErrDuplicateBindingName, name)
	}

	e := r.notifier.newEntry(b, addr)
	r.bindings[name] = e
	r.notifier.onRegistered(e)

	logger.Debug("绑定已注册", "name", name, "addr", addr, "registrationID", e.regID)
	return nil
}

// UnregisterBinding 注销命名绑定
//
// 名称未注册或映射到另一个实例时返回 ErrBindingNotRegistered。
func (r *NamedRegistry) UnregisterBinding(b pkgif.ManagedBinding) error {
	if b == nil {
		return ErrNilBinding
	}
	name := b.SocketBindingName()
	addr := b.BindAddress()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.bindings[name]
	if !ok || e.binding != b {
		return fmt.Errorf("%w: %s", ErrBindingNotRegistered, name)
	}

	delete(r.bindings, name)
	r.notifier.onUnregistered(e, addr)

	logger.Debug("绑定已注销", "name", name, "addr", addr, "registrationID", e.regID)
	return nil
}

// Lookup 按名称查找活动绑定
func (r *NamedRegistry) Lookup(name string) (pkgif.ManagedBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.bindings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, name)
	}
	return e.binding, nil
}

// Names 返回已注册名称（排序后）
func (r *NamedRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Entries 返回注册条目快照（按名称排序）
func (r *NamedRegistry) Entries() []pkgif.BindingEntry {
	r.mu.RLock()
	entries := make([]pkgif.BindingEntry, 0, len(r.bindings))
	for _, e := range r.bindings {
		entries = append(entries, e.snapshot())
	}
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b pkgif.BindingEntry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return entries
}

// ListActiveBindings 返回所有活动绑定的快照
func (r *NamedRegistry) ListActiveBindings() []pkgif.ManagedBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pkgif.ManagedBinding, 0, len(r.bindings))
	for _, e := range r.bindings {
		out = append(out, e.binding)
	}
	return out
}

// Bindings 返回基于调用时快照的惰性序列
func (r *NamedRegistry) Bindings() iter.Seq[pkgif.ManagedBinding] {
	return slices.Values(r.ListActiveBindings())
}

// Len 返回活动绑定数量
func (r *NamedRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Close 拒绝后续注册并关闭事件发射器
//
// 幂等。不关闭任何绑定；绑定的排空由 binding.Manager 负责，
// 仍然存活的绑定可以继续注销。
func (r *NamedRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	n := len(r.bindings)
	r.mu.Unlock()

	if n > 0 {
		logger.Warn("注册表关闭时仍有活动绑定", "count", n)
	}
	return r.notifier.close()
}
