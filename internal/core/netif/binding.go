package netif

import (
	"fmt"
	"net/netip"
	"slices"
)

// NIC 主机网卡快照
type NIC struct {
	// Name 网卡名称
	Name string

	// Loopback 是否为环回网卡
	Loopback bool

	// Up 网卡是否启用
	Up bool

	// Addrs 网卡上的地址
	Addrs []netip.Addr
}

// NetworkInterfaceBinding 已解析的命名接口
type NetworkInterfaceBinding struct {
	// Name 配置中的接口名
	Name string

	// Address 绑定使用的地址
	Address netip.Addr

	// NetworkInterfaces 持有该地址的主机网卡（通配地址时为空）
	NetworkInterfaces []NIC
}

// AddrPort 返回接口地址与端口组成的绑定地址
func (b *NetworkInterfaceBinding) AddrPort(port uint16) netip.AddrPort {
	return netip.AddrPortFrom(b.Address, port)
}

// IsAnyAddress 是否为通配地址
func (b *NetworkInterfaceBinding) IsAnyAddress() bool {
	return b.Address.IsUnspecified()
}

// NICNames 返回网卡名称列表
func (b *NetworkInterfaceBinding) NICNames() []string {
	names := make([]string, 0, len(b.NetworkInterfaces))
	for _, nic := range b.NetworkInterfaces {
		names = append(names, nic.Name)
	}
	return names
}

// String 返回 "name=address"
func (b *NetworkInterfaceBinding) String() string {
	return b.Name + "=" + b.Address.String()
}

// InterfaceSet 已解析接口集合
type InterfaceSet struct {
	bindings map[string]*NetworkInterfaceBinding
}

// NewInterfaceSet 由已解析接口创建集合
func NewInterfaceSet(bindings ...*NetworkInterfaceBinding) *InterfaceSet {
	s := &InterfaceSet{bindings: make(map[string]*NetworkInterfaceBinding, len(bindings))}
	for _, b := range bindings {
		s.bindings[b.Name] = b
	}
	return s
}

// Lookup 按名称查找接口
func (s *InterfaceSet) Lookup(name string) (*NetworkInterfaceBinding, error) {
	b, ok := s.bindings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
	}
	return b, nil
}

// Names 返回接口名称（排序后）
func (s *InterfaceSet) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All 返回全部接口（按名称排序）
func (s *InterfaceSet) All() []*NetworkInterfaceBinding {
	out := make([]*NetworkInterfaceBinding, 0, len(s.bindings))
	for _, name := range s.Names() {
		out = append(out, s.bindings[name])
	}
	return out
}

// Len 返回接口数量
func (s *InterfaceSet) Len() int {
	return len(s.bindings)
}
