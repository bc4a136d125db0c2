package capability

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dep2p/go-netbind/internal/core/netif"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// 能力名称
const (
	// InterfaceCapabilityName 网络接口能力
	InterfaceCapabilityName = "org.wildfly.network.interface"

	// SocketBindingCapabilityName 套接字绑定能力
	SocketBindingCapabilityName = "org.wildfly.network.socket-binding"
)

var (
	// InterfaceCapability 网络接口能力定义
	InterfaceCapability = pkgif.RuntimeCapability{
		Name:      InterfaceCapabilityName,
		Dynamic:   true,
		ValueType: reflect.TypeOf((*netif.NetworkInterfaceBinding)(nil)),
	}

	// SocketBindingCapability 套接字绑定能力定义
	SocketBindingCapability = pkgif.RuntimeCapability{
		Name:      SocketBindingCapabilityName,
		Dynamic:   true,
		ValueType: reflect.TypeOf(pkgif.SocketBindingRecord{}),
	}
)

// ensureCapability 注册能力定义，已存在时忽略
func ensureCapability(reg pkgif.CapabilityRegistry, c pkgif.RuntimeCapability) error {
	if err := reg.RegisterCapability(c); err != nil && !errors.Is(err, ErrCapabilityExists) {
		return err
	}
	return nil
}

// RegisterInterfaces 为每个已解析接口发布一条接口能力记录
func RegisterInterfaces(reg pkgif.CapabilityRegistry, set *netif.InterfaceSet) error {
	if err := ensureCapability(reg, InterfaceCapability); err != nil {
		return err
	}
	for _, b := range set.All() {
		if err := reg.Publish(InterfaceCapabilityName, b.Name, b); err != nil {
			return fmt.Errorf("publish interface %q: %w", b.Name, err)
		}
	}
	logger.Debug("接口能力已注册", "count", set.Len())
	return nil
}

// InterfaceFor 查询已发布的接口能力值
func InterfaceFor(reg pkgif.CapabilityRegistry, name string) (*netif.NetworkInterfaceBinding, bool) {
	rec, ok := reg.Record(InterfaceCapability.DynamicName(name))
	if !ok {
		return nil, false
	}
	b, ok := rec.Value.(*netif.NetworkInterfaceBinding)
	return b, ok
}

// SocketBindingFor 查询已发布的套接字绑定能力值
func SocketBindingFor(reg pkgif.CapabilityRegistry, name string) (pkgif.SocketBindingRecord, bool) {
	rec, ok := reg.Record(SocketBindingCapability.DynamicName(name))
	if !ok {
		return pkgif.SocketBindingRecord{}, false
	}
	v, ok := rec.Value.(pkgif.SocketBindingRecord)
	return v, ok
}
