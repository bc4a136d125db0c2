package mocks

import (
	"iter"
	"net/netip"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-netbind/pkg/interfaces"
)

// MockManagedBinding 模拟 ManagedBinding 接口实现
type MockManagedBinding struct {
	Name          string
	Address       netip.AddrPort
	TransportType interfaces.Transport

	// 可覆盖的方法
	BindAddressFunc func() netip.AddrPort
	CloseFunc       func() error

	// 调用记录
	CloseCalls atomic.Int32
}

// 确保实现接口
var _ interfaces.TransportBinding = (*MockManagedBinding)(nil)

// NewMockManagedBinding 创建带有默认值的 MockManagedBinding
func NewMockManagedBinding(name string, addr netip.AddrPort) *MockManagedBinding {
	return &MockManagedBinding{
		Name:          name,
		Address:       addr,
		TransportType: interfaces.TransportUDP,
	}
}

// SocketBindingName 返回绑定名称
func (m *MockManagedBinding) SocketBindingName() string {
	return m.Name
}

// BindAddress 返回绑定地址
func (m *MockManagedBinding) BindAddress() netip.AddrPort {
	if m.BindAddressFunc != nil {
		return m.BindAddressFunc()
	}
	return m.Address
}

// Transport 返回传输协议
func (m *MockManagedBinding) Transport() interfaces.Transport {
	return m.TransportType
}

// Close 关闭绑定
func (m *MockManagedBinding) Close() error {
	m.CloseCalls.Add(1)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockBindingObserver 记录注册表观察者回调
type MockBindingObserver struct {
	mu           sync.Mutex
	Registered   map[string]int
	Unregistered map[string]int
	Duplicates   []string
}

// 确保实现接口
var _ interfaces.BindingObserver = (*MockBindingObserver)(nil)

// NewMockBindingObserver 创建 MockBindingObserver
func NewMockBindingObserver() *MockBindingObserver {
	return &MockBindingObserver{
		Registered:   make(map[string]int),
		Unregistered: make(map[string]int),
	}
}

// OnRegistered 记录注册回调
func (m *MockBindingObserver) OnRegistered(registry string, _ interfaces.ManagedBinding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Registered[registry]++
}

// OnUnregistered 记录注销回调
func (m *MockBindingObserver) OnUnregistered(registry string, _ interfaces.ManagedBinding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unregistered[registry]++
}

// OnDuplicate 记录名称冲突
func (m *MockBindingObserver) OnDuplicate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates = append(m.Duplicates, name)
}

// RegisteredCount 返回指定注册表的注册次数
func (m *MockBindingObserver) RegisteredCount(registry string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Registered[registry]
}

// UnregisteredCount 返回指定注册表的注销次数
func (m *MockBindingObserver) UnregisteredCount(registry string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Unregistered[registry]
}

// DuplicateNames 返回名称冲突记录的副本
func (m *MockBindingObserver) DuplicateNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Duplicates)
}

// MockBindingRegistry 模拟 ManagedBindingRegistry，默认行为是简单的集合
type MockBindingRegistry struct {
	mu       sync.Mutex
	bindings []interfaces.ManagedBinding

	// 可覆盖的方法
	RegisterFunc   func(b interfaces.ManagedBinding) error
	UnregisterFunc func(b interfaces.ManagedBinding) error

	// 调用记录
	RegisterCalls   atomic.Int32
	UnregisterCalls atomic.Int32
}

// 确保实现接口
var _ interfaces.ManagedBindingRegistry = (*MockBindingRegistry)(nil)

// RegisterBinding 注册绑定
func (m *MockBindingRegistry) RegisterBinding(b interfaces.ManagedBinding) error {
	m.RegisterCalls.Add(1)
	if m.RegisterFunc != nil {
		if err := m.RegisterFunc(b); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.bindings, b) {
		m.bindings = append(m.bindings, b)
	}
	return nil
}

// UnregisterBinding 注销绑定
func (m *MockBindingRegistry) UnregisterBinding(b interfaces.ManagedBinding) error {
	m.UnregisterCalls.Add(1)
	if m.UnregisterFunc != nil {
		if err := m.UnregisterFunc(b); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.bindings, b)
	if i < 0 {
		return interfaces.ErrBindingNotRegistered
	}
	m.bindings = slices.Delete(m.bindings, i, i+1)
	return nil
}

// ListActiveBindings 返回活动绑定快照
func (m *MockBindingRegistry) ListActiveBindings() []interfaces.ManagedBinding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.bindings)
}

// Bindings 返回惰性序列
func (m *MockBindingRegistry) Bindings() iter.Seq[interfaces.ManagedBinding] {
	return slices.Values(m.ListActiveBindings())
}

// Len 返回活动绑定数量
func (m *MockBindingRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings)
}
