package netif

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("core/netif")

// Source 主机网卡来源
type Source interface {
	// NICs 返回主机网卡快照
	NICs() ([]NIC, error)
}

// SourceFunc 函数形式的 Source
type SourceFunc func() ([]NIC, error)

// NICs 实现 Source 接口
func (f SourceFunc) NICs() ([]NIC, error) {
	return f()
}

// hostSource 通过 net.Interfaces 读取主机网卡
type hostSource struct{}

func (hostSource) NICs() ([]NIC, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}

	nics := make([]NIC, 0, len(ifaces))
	for _, iface := range ifaces {
		nic := NIC{
			Name:     iface.Name,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Up:       iface.Flags&net.FlagUp != 0,
		}
		addrs, err := iface.Addrs()
		if err != nil {
			logger.Debug("读取网卡地址失败", "nic", iface.Name, "error", err)
			nics = append(nics, nic)
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok {
				if addr, ok := netip.AddrFromSlice(ipnet.IP); ok {
					nic.Addrs = append(nic.Addrs, addr.Unmap())
				}
			}
		}
		nics = append(nics, nic)
	}
	return nics, nil
}

// Resolver 接口解析器
type Resolver struct {
	source Source
}

// NewResolver 创建使用主机网卡的解析器
func NewResolver() *Resolver {
	return &Resolver{source: hostSource{}}
}

// NewResolverWithSource 创建使用指定网卡来源的解析器
func NewResolverWithSource(source Source) *Resolver {
	if source == nil {
		source = hostSource{}
	}
	return &Resolver{source: source}
}

// Resolve 解析单个接口配置
func (r *Resolver) Resolve(cfg config.InterfaceConfig) (*NetworkInterfaceBinding, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
	}

	switch {
	case cfg.InetAddress != "":
		addr, err := netip.ParseAddr(cfg.InetAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: interface %q: %w", ErrInvalidCriteria, cfg.Name, err)
		}
		return r.withHolders(cfg.Name, addr.Unmap())

	case cfg.AnyAddress:
		addr := netip.IPv4Unspecified()
		if cfg.IPv6() {
			addr = netip.IPv6Unspecified()
		}
		return &NetworkInterfaceBinding{Name: cfg.Name, Address: addr}, nil

	case cfg.Loopback:
		addr := netip.AddrFrom4([4]byte{127, 0, 0, 1})
		if cfg.IPv6() {
			addr = netip.IPv6Loopback()
		}
		return r.withHolders(cfg.Name, addr)

	default:
		return r.fromNIC(cfg)
	}
}

// ResolveAll 解析全部接口配置
//
// 任一接口解析失败即返回错误。
func (r *Resolver) ResolveAll(cfgs []config.InterfaceConfig) (*InterfaceSet, error) {
	bindings := make([]*NetworkInterfaceBinding, 0, len(cfgs))
	for _, cfg := range cfgs {
		b, err := r.Resolve(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve interface %q: %w", cfg.Name, err)
		}
		logger.Debug("接口已解析", "name", b.Name, "address", b.Address, "nics", b.NICNames())
		bindings = append(bindings, b)
	}
	return NewInterfaceSet(bindings...), nil
}

// withHolders 返回固定地址的绑定，并附上持有该地址的网卡
func (r *Resolver) withHolders(name string, addr netip.Addr) (*NetworkInterfaceBinding, error) {
	nics, err := r.source.NICs()
	if err != nil {
		return nil, err
	}

	b := &NetworkInterfaceBinding{Name: name, Address: addr}
	for _, nic := range nics {
		for _, a := range nic.Addrs {
			if a == addr {
				b.NetworkInterfaces = append(b.NetworkInterfaces, nic)
				break
			}
		}
	}
	return b, nil
}

// fromNIC 取指定网卡上第一个匹配地址族的地址
func (r *Resolver) fromNIC(cfg config.InterfaceConfig) (*NetworkInterfaceBinding, error) {
	nics, err := r.source.NICs()
	if err != nil {
		return nil, err
	}

	for _, nic := range nics {
		if nic.Name != cfg.NIC {
			continue
		}
		for _, a := range nic.Addrs {
			if a.Is6() == cfg.IPv6() {
				return &NetworkInterfaceBinding{
					Name:              cfg.Name,
					Address:           a,
					NetworkInterfaces: []NIC{nic},
				}, nil
			}
		}
		return nil, fmt.Errorf("%w: nic %s family %s", ErrNoMatchingAddress, cfg.NIC, familyOf(cfg))
	}
	return nil, fmt.Errorf("%w: nic %s", ErrInterfaceNotFound, cfg.NIC)
}

func familyOf(cfg config.InterfaceConfig) string {
	if cfg.IPv6() {
		return config.FamilyIPv6
	}
	return config.FamilyIPv4
}
