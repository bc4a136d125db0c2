package interfaces

import (
	"net/netip"
	"reflect"
)

// ============================================================================
//                              运行时能力
// ============================================================================

// RuntimeCapability 运行时能力定义
//
// 能力是管理模型中的命名服务点。动态能力（Dynamic）按元素名派生出
// 具体能力名：Name + "." + element，例如
// org.wildfly.network.interface.public。
type RuntimeCapability struct {
	// Name 能力基础名
	Name string

	// Dynamic 是否为动态能力
	Dynamic bool

	// ValueType 能力值类型
	ValueType reflect.Type
}

// DynamicName 返回动态元素对应的完整能力名
func (c RuntimeCapability) DynamicName(element string) string {
	if !c.Dynamic || element == "" {
		return c.Name
	}
	return c.Name + "." + element
}

// CapabilityRecord 已发布的能力记录
type CapabilityRecord struct {
	// Capability 完整能力名
	Capability string

	// Base 能力定义基础名
	Base string

	// Value 能力值，类型与定义的 ValueType 一致
	Value any
}

// CapabilityRegistry 能力注册表
type CapabilityRegistry interface {
	// RegisterCapability 注册能力定义
	RegisterCapability(c RuntimeCapability) error

	// Capability 返回能力定义
	Capability(name string) (RuntimeCapability, bool)

	// Publish 发布（或替换）能力记录
	Publish(base, element string, value any) error

	// Withdraw 撤回能力记录
	Withdraw(base, element string) error

	// Record 查询能力记录
	Record(capability string) (CapabilityRecord, bool)

	// Records 返回指定基础能力的全部记录快照
	Records(base string) []CapabilityRecord
}

// SocketBindingRecord 套接字绑定能力值
//
// 由能力层根据注册表事件发布，仅读取绑定的 {name, bindAddress}。
type SocketBindingRecord struct {
	Name           string
	Address        netip.AddrPort
	Transport      Transport
	RegistrationID string
}
