package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-netbind/internal/core/binding"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("core/transport/quic")

// DatagramBinding 端点所需的数据报绑定能力
//
// 绑定必须已处于 BOUND 状态，UDPConn 返回其持有的套接字。
type DatagramBinding interface {
	SocketBindingName() string
	LocalAddress() netip.AddrPort
	UDPConn() (*net.UDPConn, error)
}

// 确保实现了接口
var _ DatagramBinding = (*binding.ManagedDatagramSocketBinding)(nil)

// DefaultConfig 返回默认 QUIC 配置
func DefaultConfig() *quic.Config {
	return &quic.Config{
		// KeepAlivePeriod(3s) + MaxIdleTimeout(6s) 约为非优雅断开的最大检测延迟
		MaxIdleTimeout:        6 * time.Second,
		KeepAlivePeriod:       3 * time.Second,
		MaxIncomingStreams:    1024,
		MaxIncomingUniStreams: 1024,
		EnableDatagrams:       true,
	}
}

// ============================================================================
//                              Endpoint
// ============================================================================

// Endpoint QUIC 端点
//
// 在同一个受管 UDP 套接字上同时监听和拨号。
type Endpoint struct {
	mu sync.RWMutex

	binding   DatagramBinding
	transport *quic.Transport
	listeners []*quic.Listener
	closed    bool
}

// NewEndpoint 在已绑定的数据报绑定上创建 QUIC 端点
//
// 绑定未绑定或已关闭时返回绑定层的错误（binding.ErrNotBound / binding.ErrSocketClosed）。
func NewEndpoint(b DatagramBinding) (*Endpoint, error) {
	if b == nil {
		return nil, ErrNilBinding
	}
	conn, err := b.UDPConn()
	if err != nil {
		return nil, fmt.Errorf("quic endpoint %q: %w", b.SocketBindingName(), err)
	}

	logger.Debug("创建 QUIC 端点", "name", b.SocketBindingName(), "addr", b.LocalAddress())

	return &Endpoint{
		binding:   b,
		transport: &quic.Transport{Conn: conn},
	}, nil
}

// Binding 返回底层数据报绑定
func (e *Endpoint) Binding() DatagramBinding {
	return e.binding
}

// LocalAddr 返回端点本地地址
func (e *Endpoint) LocalAddr() netip.AddrPort {
	return e.binding.LocalAddress()
}

// Listen 在绑定套接字上接受 QUIC 连接
func (e *Endpoint) Listen(tlsConf *tls.Config, cfg *quic.Config) (*quic.Listener, error) {
	if tlsConf == nil || (len(tlsConf.Certificates) == 0 && tlsConf.GetCertificate == nil && tlsConf.GetConfigForClient == nil) {
		return nil, ErrNoCertificate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEndpointClosed
	}

	ln, err := e.transport.Listen(tlsConf, cfg)
	if err != nil {
		return nil, fmt.Errorf("quic listen on %s: %w", e.binding.LocalAddress(), err)
	}
	e.listeners = append(e.listeners, ln)

	logger.Debug("QUIC 端点开始监听", "name", e.binding.SocketBindingName(), "addr", e.binding.LocalAddress())
	return ln, nil
}

// Dial 从绑定套接字拨号到 addr
func (e *Endpoint) Dial(ctx context.Context, addr netip.AddrPort, tlsConf *tls.Config, cfg *quic.Config) (quic.Connection, error) {
	if !addr.IsValid() || addr.Port() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrEndpointClosed
	}
	tr := e.transport
	e.mu.RUnlock()

	conn, err := tr.Dial(ctx, net.UDPAddrFromAddrPort(addr), tlsConf, cfg)
	if err != nil {
		return nil, fmt.Errorf("quic dial %s: %w", addr, err)
	}
	return conn, nil
}

// Close 关闭端点
//
// 关闭全部监听器和连接，不关闭底层绑定。幂等。
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	for _, ln := range e.listeners {
		_ = ln.Close()
	}
	e.listeners = nil

	// 套接字由调用方提供，quic.Transport 不会关闭它
	if err := e.transport.Close(); err != nil {
		return fmt.Errorf("close quic transport: %w", err)
	}

	logger.Debug("QUIC 端点已关闭", "name", e.binding.SocketBindingName())
	return nil
}

// IsClosed 端点是否已关闭
func (e *Endpoint) IsClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
