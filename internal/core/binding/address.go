package binding

import (
	"net"
	"net/netip"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// networkFor 返回与地址族匹配的网络名（udp4/udp6/tcp4/tcp6）
//
// 显式指定地址族，避免通配 IPv4 地址被绑定为双栈 IPv6 套接字。
func networkFor(transport pkgif.Transport, addr netip.Addr) string {
	if addr.Is4() || addr.Is4In6() {
		return string(transport) + "4"
	}
	return string(transport) + "6"
}

// normalize 把 IPv4 映射地址还原为 IPv4
func normalize(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// addrPortOf 从 net.Addr 提取 netip.AddrPort
func addrPortOf(a net.Addr) netip.AddrPort {
	switch v := a.(type) {
	case *net.UDPAddr:
		return normalize(v.AddrPort())
	case *net.TCPAddr:
		return normalize(v.AddrPort())
	default:
		ap, err := netip.ParseAddrPort(a.String())
		if err != nil {
			return netip.AddrPort{}
		}
		return normalize(ap)
	}
}
