package binding

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/netif"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// ============================================================================
//                              Manager
// ============================================================================

// Manager 套接字绑定管理器
//
// 持有命名与未命名注册表，并把它们的共享引用交给创建的套接字：
// 名称为空的套接字进入未命名注册表，其余进入命名注册表。
type Manager struct {
	named   pkgif.NamedBindingRegistry
	unnamed pkgif.UnnamedBindingRegistry

	interfaces   *netif.InterfaceSet
	group        config.SocketBindingGroupConfig
	failures     pkgif.BindFailureObserver
	drainOnClose bool

	// mu 读锁覆盖每次创建，Close 取写锁等待进行中的创建完成
	mu     sync.RWMutex
	closed bool

	// unbound 交给调用方、尚未绑定的套接字；Close 时关闭，
	// 防止管理器关闭后再绑定并重新填充注册表
	unboundMu sync.Mutex
	unbound   map[unboundSocket]struct{}
}

// unboundSocket 由 CreateUnbound* 创建的套接字
type unboundSocket interface {
	State() State
	closeIfUnbound() bool
}

// ManagerOption 管理器选项
type ManagerOption func(*Manager)

// WithInterfaces 设置已解析的命名接口
func WithInterfaces(set *netif.InterfaceSet) ManagerOption {
	return func(m *Manager) {
		m.interfaces = set
	}
}

// WithSocketBindingGroup 设置套接字绑定组
func WithSocketBindingGroup(group config.SocketBindingGroupConfig) ManagerOption {
	return func(m *Manager) {
		m.group = group
	}
}

// WithFailureObserver 设置绑定失败观察者
func WithFailureObserver(obs pkgif.BindFailureObserver) ManagerOption {
	return func(m *Manager) {
		m.failures = obs
	}
}

// WithDrainOnClose 设置关闭时是否排空活动绑定（默认 true）
func WithDrainOnClose(drain bool) ManagerOption {
	return func(m *Manager) {
		m.drainOnClose = drain
	}
}

// NewManager 创建绑定管理器
func NewManager(named pkgif.NamedBindingRegistry, unnamed pkgif.UnnamedBindingRegistry, opts ...ManagerOption) (*Manager, error) {
	if named == nil || unnamed == nil {
		return nil, ErrNilRegistry
	}
	m := &Manager{
		named:        named,
		unnamed:      unnamed,
		interfaces:   netif.NewInterfaceSet(),
		group:        config.DefaultSocketBindingGroupConfig(),
		drainOnClose: true,
		unbound:      make(map[unboundSocket]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NamedRegistry 返回命名注册表
func (m *Manager) NamedRegistry() pkgif.NamedBindingRegistry {
	return m.named
}

// UnnamedRegistry 返回未命名注册表
func (m *Manager) UnnamedRegistry() pkgif.UnnamedBindingRegistry {
	return m.unnamed
}

// PortOffset 返回绑定组端口偏移
func (m *Manager) PortOffset() int {
	return m.group.PortOffset
}

// DefaultInterface 返回绑定组默认接口名
func (m *Manager) DefaultInterface() string {
	return m.group.DefaultInterface
}

// Interfaces 返回已解析的命名接口
func (m *Manager) Interfaces() *netif.InterfaceSet {
	return m.interfaces
}

// SocketBindings 返回配置的套接字绑定
func (m *Manager) SocketBindings() []config.SocketBindingConfig {
	return m.group.Bindings
}

// registryFor 按名称选择注册表
func (m *Manager) registryFor(name string) pkgif.ManagedBindingRegistry {
	if name == "" {
		return m.unnamed
	}
	return m.named
}

func (m *Manager) socketOptions() []Option {
	if m.failures == nil {
		return nil
	}
	return []Option{WithBindFailureObserver(m.failures)}
}

// ============================================================================
//                              创建套接字
// ============================================================================

// CreateDatagramSocket 创建并绑定 UDP 套接字
func (m *Manager) CreateDatagramSocket(name string, addr netip.AddrPort) (*ManagedDatagramSocketBinding, error) {
	if !addr.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	return NewManagedDatagramSocketBinding(name, m.registryFor(name), addr, m.socketOptions()...)
}

// CreateUnboundDatagramSocket 创建未绑定的 UDP 套接字
func (m *Manager) CreateUnboundDatagramSocket(name string) (*ManagedDatagramSocketBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	b, err := NewManagedDatagramSocketBinding(name, m.registryFor(name), netip.AddrPort{}, m.socketOptions()...)
	if err != nil {
		return nil, err
	}
	m.trackUnbound(b)
	return b, nil
}

// CreateServerSocket 创建并绑定 TCP 监听套接字
func (m *Manager) CreateServerSocket(name string, addr netip.AddrPort) (*ManagedServerSocketBinding, error) {
	if !addr.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	return NewManagedServerSocketBinding(name, m.registryFor(name), addr, m.socketOptions()...)
}

// CreateUnboundServerSocket 创建未绑定的 TCP 监听套接字
func (m *Manager) CreateUnboundServerSocket(name string) (*ManagedServerSocketBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	b, err := NewManagedServerSocketBinding(name, m.registryFor(name), netip.AddrPort{}, m.socketOptions()...)
	if err != nil {
		return nil, err
	}
	m.trackUnbound(b)
	return b, nil
}

// trackUnbound 记录未绑定的套接字，顺带清理已绑定或已关闭的条目
func (m *Manager) trackUnbound(s unboundSocket) {
	m.unboundMu.Lock()
	defer m.unboundMu.Unlock()
	for p := range m.unbound {
		if p.State() != StateCreated {
			delete(m.unbound, p)
		}
	}
	m.unbound[s] = struct{}{}
}

// closeUnbound 关闭仍未绑定的套接字，返回关闭数量
func (m *Manager) closeUnbound() int {
	m.unboundMu.Lock()
	pending := m.unbound
	m.unbound = make(map[unboundSocket]struct{})
	m.unboundMu.Unlock()

	closed := 0
	for s := range pending {
		if s.State() == StateCreated && s.closeIfUnbound() {
			closed++
		}
	}
	return closed
}

// ============================================================================
//                              配置的绑定
// ============================================================================

// ResolveAddress 计算配置绑定的绑定地址
//
// 地址为接口地址，端口为配置端口加绑定组偏移（固定端口与端口 0 除外）。
func (m *Manager) ResolveAddress(name string) (netip.AddrPort, config.SocketBindingConfig, error) {
	cfg, ok := m.group.Binding(name)
	if !ok {
		return netip.AddrPort{}, cfg, fmt.Errorf("%w: %s", ErrUnknownSocketBinding, name)
	}
	iface, err := m.interfaces.Lookup(m.group.InterfaceFor(cfg))
	if err != nil {
		return netip.AddrPort{}, cfg, fmt.Errorf("socket binding %q: %w", name, err)
	}
	port := m.group.EffectivePort(cfg)
	if port < 0 || port > 65535 {
		return netip.AddrPort{}, cfg, fmt.Errorf("%w: socket binding %q port %d", ErrInvalidAddress, name, port)
	}
	return iface.AddrPort(uint16(port)), cfg, nil
}

// Open 打开配置中的命名绑定
func (m *Manager) Open(name string) (pkgif.TransportBinding, error) {
	addr, cfg, err := m.ResolveAddress(name)
	if err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case config.TransportUDP:
		b, err := m.CreateDatagramSocket(name, addr)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.TransportTCP:
		b, err := m.CreateServerSocket(name, addr)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("socket binding %q: unsupported transport %q", name, cfg.Transport)
	}
}

// OpenAll 并发打开全部配置的绑定
//
// 结果顺序与配置一致。任一绑定失败时关闭本次已打开的绑定并返回第一个错误。
func (m *Manager) OpenAll(ctx context.Context) ([]pkgif.TransportBinding, error) {
	bindings := m.group.Bindings
	opened := make([]pkgif.TransportBinding, len(bindings))

	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range bindings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := m.Open(cfg.Name)
			if err != nil {
				return err
			}
			opened[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var closeErr error
		for _, b := range opened {
			if b != nil {
				closeErr = multierr.Append(closeErr, b.Close())
			}
		}
		if closeErr != nil {
			logger.Warn("回滚已打开的绑定出错", "error", closeErr)
		}
		return nil, err
	}

	logger.Info("套接字绑定组已打开", "count", len(opened), "portOffset", m.group.PortOffset)
	return opened, nil
}

// ============================================================================
//                              排空与关闭
// ============================================================================

// Drain 关闭两个注册表中的全部活动绑定
//
// 返回所有关闭错误的聚合。结束时两个注册表均为空。
func (m *Manager) Drain() error {
	var err error
	err = multierr.Append(err, drainRegistry(m.named))
	err = multierr.Append(err, drainRegistry(m.unnamed))
	return err
}

// drainRegistry 关闭注册表中的全部绑定
//
// 绑定的 Close 会自行注销；对未自行注销的实现再强制注销一次。
func drainRegistry(reg pkgif.ManagedBindingRegistry) error {
	var err error
	for b := range reg.Bindings() {
		err = multierr.Append(err, b.Close())
		if uerr := reg.UnregisterBinding(b); uerr != nil && !errors.Is(uerr, pkgif.ErrBindingNotRegistered) {
			err = multierr.Append(err, uerr)
		}
	}
	return err
}

// Close 关闭管理器
//
// 幂等。之后的创建返回 ErrManagerClosed；已交出但尚未绑定的套接字被关闭，
// 之后的 Bind 返回 ErrSocketClosed。drainOnClose 时排空全部活动绑定。
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	unbound := m.closeUnbound()
	if !m.drainOnClose {
		logger.Info("绑定管理器已关闭", "unbound", unbound)
		return nil
	}

	count := m.named.Len() + m.unnamed.Len()
	err := m.Drain()
	logger.Info("绑定管理器已关闭", "drained", count, "unbound", unbound, "errors", len(multierr.Errors(err)))
	return err
}

// IsClosed 管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
