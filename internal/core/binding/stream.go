package binding

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// ManagedServerSocketBinding 受管 TCP 监听套接字
//
// 实现 net.Listener，可直接交给外部的 accept 循环（例如 http.Server.Serve）。
type ManagedServerSocketBinding struct {
	socket[*net.TCPListener]
}

// 确保实现接口
var (
	_ pkgif.TransportBinding = (*ManagedServerSocketBinding)(nil)
	_ net.Listener           = (*ManagedServerSocketBinding)(nil)
)

// NewManagedServerSocketBinding 创建受管 TCP 监听套接字
//
// 语义与 NewManagedDatagramSocketBinding 相同。
func NewManagedServerSocketBinding(name string, registry pkgif.ManagedBindingRegistry,
	addr netip.AddrPort, opts ...Option) (*ManagedServerSocketBinding, error) {
	b := &ManagedServerSocketBinding{}
	if err := b.init(b, name, pkgif.TransportTCP, registry, listenTCP, opts); err != nil {
		return nil, err
	}
	if !addr.IsValid() {
		return b, nil
	}
	if err := b.Bind(addr); err != nil {
		return nil, err
	}
	return b, nil
}

// listenTCP 打开 TCP 监听套接字
func listenTCP(addr netip.AddrPort) (*net.TCPListener, netip.AddrPort, error) {
	l, err := net.ListenTCP(networkFor(pkgif.TransportTCP, addr.Addr()), net.TCPAddrFromAddrPort(addr))
	if err != nil {
		return nil, netip.AddrPort{}, err
	}
	return l, addrPortOf(l.Addr()), nil
}

// Bind 绑定到 addr 并注册
func (b *ManagedServerSocketBinding) Bind(addr netip.AddrPort) error {
	return b.bind(addr)
}

// Listener 返回底层 TCP 监听器
func (b *ManagedServerSocketBinding) Listener() (*net.TCPListener, error) {
	return b.current()
}

// Accept 实现 net.Listener
//
// 未绑定返回 ErrNotBound；关闭后返回的错误同时匹配 ErrSocketClosed 与 net.ErrClosed。
func (b *ManagedServerSocketBinding) Accept() (net.Conn, error) {
	l, err := b.current()
	if err != nil {
		if errors.Is(err, ErrSocketClosed) {
			return nil, fmt.Errorf("%w: %w", ErrSocketClosed, net.ErrClosed)
		}
		return nil, err
	}
	return l.Accept()
}

// Addr 实现 net.Listener，返回本地地址，未绑定时为 nil
func (b *ManagedServerSocketBinding) Addr() net.Addr {
	ap := b.LocalAddress()
	if !ap.IsValid() {
		return nil
	}
	return net.TCPAddrFromAddrPort(ap)
}
