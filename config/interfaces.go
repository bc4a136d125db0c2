package config

import (
	"net/netip"
)

// 地址族
const (
	// FamilyIPv4 IPv4 地址族（默认）
	FamilyIPv4 = "ipv4"

	// FamilyIPv6 IPv6 地址族
	FamilyIPv6 = "ipv6"
)

// InterfaceConfig 命名网络接口配置
//
// 每个接口必须且只能指定一种选择条件：
//   - InetAddress: 固定地址，例如 "127.0.0.1"
//   - AnyAddress: 通配地址（0.0.0.0 或 ::）
//   - Loopback: 环回地址
//   - NIC: 主机网卡名称，取该网卡上第一个匹配地址族的地址
type InterfaceConfig struct {
	// Name 接口名称，例如 "public"、"management"
	Name string `json:"name"`

	// InetAddress 固定 IP 地址
	InetAddress string `json:"inet_address,omitempty"`

	// AnyAddress 使用通配地址
	AnyAddress bool `json:"any_address,omitempty"`

	// Loopback 使用环回地址
	Loopback bool `json:"loopback,omitempty"`

	// NIC 主机网卡名称
	NIC string `json:"nic,omitempty"`

	// Family 地址族（ipv4/ipv6），用于 AnyAddress/Loopback/NIC
	Family string `json:"family,omitempty"`
}

// DefaultInterfaces 返回默认接口列表
func DefaultInterfaces() []InterfaceConfig {
	return []InterfaceConfig{
		{Name: "public", InetAddress: "127.0.0.1"},
	}
}

// Validate 验证接口配置
func (c InterfaceConfig) Validate() error {
	if c.Name == "" {
		return invalidf("interface: name is required")
	}

	criteria := 0
	if c.InetAddress != "" {
		criteria++
		if _, err := netip.ParseAddr(c.InetAddress); err != nil {
			return invalidf("interface %q: invalid inet_address %q: %v", c.Name, c.InetAddress, err)
		}
	}
	if c.AnyAddress {
		criteria++
	}
	if c.Loopback {
		criteria++
	}
	if c.NIC != "" {
		criteria++
	}
	if criteria != 1 {
		return invalidf("interface %q: exactly one of inet_address, any_address, loopback, nic must be set", c.Name)
	}

	switch c.Family {
	case "", FamilyIPv4, FamilyIPv6:
	default:
		return invalidf("interface %q: unknown family %q", c.Name, c.Family)
	}
	return nil
}

// IPv6 是否选择 IPv6 地址族
func (c InterfaceConfig) IPv6() bool {
	return c.Family == FamilyIPv6
}
