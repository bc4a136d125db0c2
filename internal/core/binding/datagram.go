package binding

import (
	"net"
	"net/netip"
	"time"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// ManagedDatagramSocketBinding 受管 UDP 套接字
//
// 绑定成功后自动注册到注册表，关闭时先注销再释放套接字。
// 读写方法在未绑定时返回 ErrNotBound。
type ManagedDatagramSocketBinding struct {
	socket[*net.UDPConn]
}

// 确保实现接口
var (
	_ pkgif.TransportBinding = (*ManagedDatagramSocketBinding)(nil)
	_ net.PacketConn         = (*ManagedDatagramSocketBinding)(nil)
)

// NewManagedDatagramSocketBinding 创建受管 UDP 套接字
//
// addr 有效时立即绑定并注册，任一步失败都不返回对象：
// 操作系统拒绝绑定返回 *BindError 且不触碰注册表；名称冲突时
// 释放已打开的套接字并返回 ErrDuplicateBindingName。
// addr 为零值时返回未绑定的套接字，稍后调用 Bind。
func NewManagedDatagramSocketBinding(name string, registry pkgif.ManagedBindingRegistry,
	addr netip.AddrPort, opts ...Option) (*ManagedDatagramSocketBinding, error) {
	b := &ManagedDatagramSocketBinding{}
	if err := b.init(b, name, pkgif.TransportUDP, registry, listenUDP, opts); err != nil {
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

// listenUDP 打开 UDP 套接字
func listenUDP(addr netip.AddrPort) (*net.UDPConn, netip.AddrPort, error) {
	conn, err := net.ListenUDP(networkFor(pkgif.TransportUDP, addr.Addr()), net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, netip.AddrPort{}, err
	}
	return conn, addrPortOf(conn.LocalAddr()), nil
}

// Bind 绑定到 addr 并注册
//
// 已关闭返回 ErrSocketClosed，已绑定返回 ErrAlreadyBound。
func (b *ManagedDatagramSocketBinding) Bind(addr netip.AddrPort) error {
	return b.bind(addr)
}

// UDPConn 返回底层 UDP 连接
//
// 调用方不应直接关闭返回的连接，应关闭绑定本身。
func (b *ManagedDatagramSocketBinding) UDPConn() (*net.UDPConn, error) {
	return b.current()
}

// LocalAddr 返回本地地址，未绑定时为 nil
func (b *ManagedDatagramSocketBinding) LocalAddr() net.Addr {
	ap := b.LocalAddress()
	if !ap.IsValid() {
		return nil
	}
	return net.UDPAddrFromAddrPort(ap)
}

// ReadFrom 实现 net.PacketConn
func (b *ManagedDatagramSocketBinding) ReadFrom(p []byte) (int, net.Addr, error) {
	conn, err := b.current()
	if err != nil {
		return 0, nil, err
	}
	return conn.ReadFrom(p)
}

// WriteTo 实现 net.PacketConn
func (b *ManagedDatagramSocketBinding) WriteTo(p []byte, addr net.Addr) (int, error) {
	conn, err := b.current()
	if err != nil {
		return 0, err
	}
	return conn.WriteTo(p, addr)
}

// ReadFromUDPAddrPort 读取数据报并返回对端地址
func (b *ManagedDatagramSocketBinding) ReadFromUDPAddrPort(p []byte) (int, netip.AddrPort, error) {
	conn, err := b.current()
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	n, addr, err := conn.ReadFromUDPAddrPort(p)
	return n, normalize(addr), err
}

// WriteToUDPAddrPort 发送数据报到 addr
func (b *ManagedDatagramSocketBinding) WriteToUDPAddrPort(p []byte, addr netip.AddrPort) (int, error) {
	conn, err := b.current()
	if err != nil {
		return 0, err
	}
	return conn.WriteToUDPAddrPort(p, addr)
}

// SetDeadline 实现 net.PacketConn
func (b *ManagedDatagramSocketBinding) SetDeadline(t time.Time) error {
	conn, err := b.current()
	if err != nil {
		return err
	}
	return conn.SetDeadline(t)
}

// SetReadDeadline 实现 net.PacketConn
func (b *ManagedDatagramSocketBinding) SetReadDeadline(t time.Time) error {
	conn, err := b.current()
	if err != nil {
		return err
	}
	return conn.SetReadDeadline(t)
}

// SetWriteDeadline 实现 net.PacketConn
func (b *ManagedDatagramSocketBinding) SetWriteDeadline(t time.Time) error {
	conn, err := b.current()
	if err != nil {
		return err
	}
	return conn.SetWriteDeadline(t)
}
