package binding

import (
	"fmt"
	"io"
	"net/netip"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("core/binding")

// ============================================================================
//                              State
// ============================================================================

// State 套接字状态
type State int32

const (
	// StateCreated 已创建，未绑定
	StateCreated State = iota

	// StateBound 已绑定并已注册
	StateBound

	// StateClosed 已关闭（终态）
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ============================================================================
//                              Option
// ============================================================================

// Option 套接字选项
type Option func(*socketOptions)

type socketOptions struct {
	failures pkgif.BindFailureObserver
}

// WithBindFailureObserver 设置绑定失败观察者（用于指标）
func WithBindFailureObserver(obs pkgif.BindFailureObserver) Option {
	return func(o *socketOptions) {
		o.failures = obs
	}
}

// ============================================================================
//                              socket 公共实现
// ============================================================================

// openFunc 打开并绑定操作系统套接字，返回句柄和实际本地地址
type openFunc[H io.Closer] func(addr netip.AddrPort) (H, netip.AddrPort, error)

// socket 受管套接字的公共部分
//
// opMu 串行化 Bind/Close；mu 只保护地址与句柄，注册表回调
// BindAddress 时只会获取 mu，因此可以在持有 opMu 时调用注册表。
type socket[H io.Closer] struct {
	self      pkgif.ManagedBinding
	name      string
	transport pkgif.Transport
	registry  pkgif.ManagedBindingRegistry
	failures  pkgif.BindFailureObserver
	open      openFunc[H]

	opMu  sync.Mutex
	state atomic.Int32

	mu        sync.RWMutex
	requested netip.AddrPort
	local     netip.AddrPort
	handle    H
	hasHandle bool
}

func (s *socket[H]) init(self pkgif.ManagedBinding, name string, transport pkgif.Transport,
	registry pkgif.ManagedBindingRegistry, open openFunc[H], opts []Option) error {
	if registry == nil {
		return ErrNilRegistry
	}
	o := &socketOptions{}
	for _, opt := range opts {
		opt(o)
	}

	s.self = self
	s.name = name
	s.transport = transport
	s.registry = registry
	s.failures = o.failures
	s.open = open
	return nil
}

// SocketBindingName 返回绑定名称，未命名为空字符串
func (s *socket[H]) SocketBindingName() string {
	return s.name
}

// BindAddress 返回绑定地址
//
// 命名绑定返回操作系统报告的本地地址（端口 0 已解析），绑定前为零值；
// 未命名绑定原样返回请求的地址。
func (s *socket[H]) BindAddress() netip.AddrPort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.name == "" {
		return s.requested
	}
	return s.local
}

// LocalAddress 返回操作系统报告的本地地址，未绑定时为零值
func (s *socket[H]) LocalAddress() netip.AddrPort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local
}

// Transport 返回传输协议
func (s *socket[H]) Transport() pkgif.Transport {
	return s.transport
}

// State 返回当前状态
func (s *socket[H]) State() State {
	return State(s.state.Load())
}

// IsBound 是否已绑定
func (s *socket[H]) IsBound() bool {
	return s.State() == StateBound
}

// IsClosed 是否已关闭
func (s *socket[H]) IsClosed() bool {
	return s.State() == StateClosed
}

// current 返回已绑定的句柄
func (s *socket[H]) current() (H, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasHandle {
		var zero H
		if s.State() == StateClosed {
			return zero, ErrSocketClosed
		}
		return zero, ErrNotBound
	}
	return s.handle, nil
}

// bind 绑定并注册
//
// 注册发生在执行绑定的同一临界区内，返回前完成。
// 注册失败（例如名称冲突）时释放刚打开的套接字并回到 StateCreated。
func (s *socket[H]) bind(addr netip.AddrPort) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	switch s.State() {
	case StateClosed:
		return ErrSocketClosed
	case StateBound:
		return ErrAlreadyBound
	}
	if !addr.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}

	h, local, err := s.open(addr)
	if err != nil {
		be := newBindError("bind", s.transport, s.name, addr, err)
		if s.failures != nil {
			s.failures.OnBindFailure(s.transport, be.Reason)
		}
		logger.Debug("绑定失败", "name", s.name, "transport", s.transport, "addr", addr, "reason", be.Reason, "error", err)
		return be
	}

	s.mu.Lock()
	prevRequested := s.requested
	s.requested = addr
	s.local = local
	s.handle = h
	s.hasHandle = true
	s.mu.Unlock()

	if err := s.registry.RegisterBinding(s.self); err != nil {
		s.mu.Lock()
		s.requested = prevRequested
		s.local = netip.AddrPort{}
		var zero H
		s.handle = zero
		s.hasHandle = false
		s.mu.Unlock()

		if cerr := h.Close(); cerr != nil {
			logger.Debug("注册失败后释放套接字出错", "name", s.name, "error", cerr)
		}
		return fmt.Errorf("register socket binding %q: %w", s.name, err)
	}

	s.state.Store(int32(StateBound))
	logger.Debug("套接字已绑定", "name", s.name, "transport", s.transport, "requested", addr, "local", local)
	return nil
}

// Close 关闭套接字
//
// 幂等。顺序为：从注册表注销、标记 StateClosed、释放操作系统句柄，
// 因此注册表中不会出现已关闭的套接字。注销错误只记录日志，
// 返回值只反映句柄关闭的结果。
func (s *socket[H]) Close() (err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	prev := s.State()
	if prev == StateClosed {
		return nil
	}

	s.mu.RLock()
	h, hasHandle := s.handle, s.hasHandle
	s.mu.RUnlock()

	if hasHandle {
		defer func() {
			err = h.Close()
			s.mu.Lock()
			s.hasHandle = false
			s.mu.Unlock()
		}()
	}

	if uerr := s.registry.UnregisterBinding(s.self); uerr != nil {
		if prev == StateBound {
			logger.Warn("注销绑定失败", "name", s.name, "transport", s.transport, "error", uerr)
		} else {
			logger.Debug("关闭未绑定的套接字", "name", s.name, "transport", s.transport, "error", uerr)
		}
	}
	s.state.Store(int32(StateClosed))
	return nil
}

// closeIfUnbound 套接字仍处于 StateCreated 时将其关闭
//
// 未绑定的套接字没有句柄也不在注册表中，只需置为终态。
// 返回 false 表示套接字已绑定，保持不变。
func (s *socket[H]) closeIfUnbound() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	switch s.State() {
	case StateBound:
		return false
	case StateClosed:
		return true
	}
	s.state.Store(int32(StateClosed))
	logger.Debug("关闭未绑定的套接字", "name", s.name, "transport", s.transport)
	return true
}
