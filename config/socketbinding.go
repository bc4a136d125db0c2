package config

// 传输协议名称
const (
	// TransportTCP 流式监听套接字
	TransportTCP = "tcp"

	// TransportUDP 数据报套接字
	TransportUDP = "udp"
)

// maxPort 最大端口号
const maxPort = 65535

// SocketBindingGroupConfig 套接字绑定组配置
//
// 绑定组为一组命名套接字绑定提供默认接口和统一端口偏移。
type SocketBindingGroupConfig struct {
	// DefaultInterface 未指定接口的绑定使用的接口名
	DefaultInterface string `json:"default_interface"`

	// PortOffset 端口偏移，加到所有非固定端口上
	PortOffset int `json:"port_offset"`

	// Bindings 命名套接字绑定
	Bindings []SocketBindingConfig `json:"bindings,omitempty"`
}

// SocketBindingConfig 命名套接字绑定配置
type SocketBindingConfig struct {
	// Name 绑定名称（注册表键）
	Name string `json:"name"`

	// Interface 接口名，为空时使用绑定组默认接口
	Interface string `json:"interface,omitempty"`

	// Port 端口号，0 表示由操作系统分配（不应用偏移）
	Port int `json:"port"`

	// FixedPort 固定端口，不应用绑定组偏移
	FixedPort bool `json:"fixed_port,omitempty"`

	// Transport 传输协议（tcp/udp）
	Transport string `json:"transport"`
}

// DefaultSocketBindingGroupConfig 返回默认绑定组配置
func DefaultSocketBindingGroupConfig() SocketBindingGroupConfig {
	return SocketBindingGroupConfig{
		DefaultInterface: "public",
		PortOffset:       0,
	}
}

// Validate 验证绑定组配置
func (c SocketBindingGroupConfig) Validate() error {
	if c.PortOffset < 0 || c.PortOffset > maxPort {
		return invalidf("socket_bindings: port_offset %d out of range", c.PortOffset)
	}

	seen := make(map[string]struct{}, len(c.Bindings))
	for _, b := range c.Bindings {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seen[b.Name]; dup {
			return invalidf("socket_bindings: duplicate binding %q", b.Name)
		}
		seen[b.Name] = struct{}{}

		if port := c.EffectivePort(b); port > maxPort {
			return invalidf("socket binding %q: port %d with offset %d exceeds %d", b.Name, b.Port, c.PortOffset, maxPort)
		}
		if b.Interface == "" && c.DefaultInterface == "" {
			return invalidf("socket binding %q: no interface and no default_interface", b.Name)
		}
	}
	return nil
}

// validateInterfaces 校验引用的接口均已定义
func (c SocketBindingGroupConfig) validateInterfaces(defined map[string]struct{}) error {
	if len(c.Bindings) == 0 {
		return nil
	}
	for _, b := range c.Bindings {
		name := c.InterfaceFor(b)
		if _, ok := defined[name]; !ok {
			return invalidf("socket binding %q: unknown interface %q", b.Name, name)
		}
	}
	return nil
}

// InterfaceFor 返回绑定实际使用的接口名
func (c SocketBindingGroupConfig) InterfaceFor(b SocketBindingConfig) string {
	if b.Interface != "" {
		return b.Interface
	}
	return c.DefaultInterface
}

// EffectivePort 返回应用偏移后的端口
//
// 端口 0 与固定端口不应用偏移。
func (c SocketBindingGroupConfig) EffectivePort(b SocketBindingConfig) int {
	if b.Port == 0 || b.FixedPort {
		return b.Port
	}
	return b.Port + c.PortOffset
}

// Binding 按名称返回绑定配置
func (c SocketBindingGroupConfig) Binding(name string) (SocketBindingConfig, bool) {
	for _, b := range c.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return SocketBindingConfig{}, false
}

// WithPortOffset 设置端口偏移
func (c SocketBindingGroupConfig) WithPortOffset(offset int) SocketBindingGroupConfig {
	c.PortOffset = offset
	return c
}

// WithDefaultInterface 设置默认接口
func (c SocketBindingGroupConfig) WithDefaultInterface(name string) SocketBindingGroupConfig {
	c.DefaultInterface = name
	return c
}

// WithBinding 添加或替换同名绑定
func (c SocketBindingGroupConfig) WithBinding(b SocketBindingConfig) SocketBindingGroupConfig {
	bindings := make([]SocketBindingConfig, 0, len(c.Bindings)+1)
	replaced := false
	for _, existing := range c.Bindings {
		if existing.Name == b.Name {
			bindings = append(bindings, b)
			replaced = true
			continue
		}
		bindings = append(bindings, existing)
	}
	if !replaced {
		bindings = append(bindings, b)
	}
	c.Bindings = bindings
	return c
}

// Validate 验证单个绑定配置
func (c SocketBindingConfig) Validate() error {
	if c.Name == "" {
		return invalidf("socket binding: name is required")
	}
	if c.Port < 0 || c.Port > maxPort {
		return invalidf("socket binding %q: port %d out of range", c.Name, c.Port)
	}
	switch c.Transport {
	case TransportTCP, TransportUDP:
	default:
		return invalidf("socket binding %q: transport must be %q or %q, got %q", c.Name, TransportTCP, TransportUDP, c.Transport)
	}
	return nil
}
