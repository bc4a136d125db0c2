// Package testutil 提供测试辅助工具
package testutil

import (
	"net/netip"

	"github.com/dep2p/go-netbind/config"
)

// 测试数据固件
//
// 提供测试中常用的常量值，确保测试一致性。

var (
	// LoopbackAny 环回地址 + 系统分配端口
	LoopbackAny = netip.MustParseAddrPort("127.0.0.1:0")

	// LoopbackAnyV6 IPv6 环回地址 + 系统分配端口
	LoopbackAnyV6 = netip.MustParseAddrPort("[::1]:0")
)

// LoopbackConfig 返回只包含环回接口的配置
//
// bindings 中的端口通常为 0，由操作系统分配。
func LoopbackConfig(bindings ...config.SocketBindingConfig) *config.Config {
	cfg := config.NewConfig()
	cfg.Interfaces = []config.InterfaceConfig{
		{Name: "public", InetAddress: "127.0.0.1"},
	}
	for _, b := range bindings {
		cfg.SocketBindings = cfg.SocketBindings.WithBinding(b)
	}
	return cfg
}

// TCPBinding 返回端口由系统分配的 TCP 绑定配置
func TCPBinding(name string) config.SocketBindingConfig {
	return config.SocketBindingConfig{Name: name, Transport: config.TransportTCP}
}

// UDPBinding 返回端口由系统分配的 UDP 绑定配置
func UDPBinding(name string) config.SocketBindingConfig {
	return config.SocketBindingConfig{Name: name, Transport: config.TransportUDP}
}
