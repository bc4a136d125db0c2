// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.SocketBindings.PortOffset = 100
//
//	// 添加套接字绑定
//	cfg.SocketBindings = cfg.SocketBindings.WithBinding(config.SocketBindingConfig{
//	    Name:      "http",
//	    Port:      8080,
//	    Transport: "tcp",
//	})
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 是 go-netbind 的完整配置结构
//
// 配置按照功能模块组织：
//   - Interfaces: 命名网络接口（解析为绑定地址）
//   - SocketBindings: 套接字绑定组（端口偏移与命名绑定）
//   - Registry: 注册表与排空
//   - Metrics: Prometheus 指标
type Config struct {
	// Interfaces 命名网络接口
	Interfaces []InterfaceConfig `json:"interfaces,omitempty"`

	// SocketBindings 套接字绑定组配置
	SocketBindings SocketBindingGroupConfig `json:"socket_bindings"`

	// Registry 注册表配置
	Registry RegistryConfig `json:"registry"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
//
// 默认包含一个解析到 127.0.0.1 的 "public" 接口，绑定组以其为默认接口，
// 不包含任何套接字绑定。
func NewConfig() *Config {
	return &Config{
		Interfaces:     DefaultInterfaces(),
		SocketBindings: DefaultSocketBindingGroupConfig(),
		Registry:       DefaultRegistryConfig(),
		Metrics:        DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 除各子配置自身的检查外，还校验绑定组引用的接口名是否已定义。
func (c *Config) Validate() error {
	names := make(map[string]struct{}, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		if err := iface.Validate(); err != nil {
			return err
		}
		if _, dup := names[iface.Name]; dup {
			return invalidf("interfaces: duplicate interface %q", iface.Name)
		}
		names[iface.Name] = struct{}{}
	}

	if err := c.SocketBindings.Validate(); err != nil {
		return err
	}
	if err := c.SocketBindings.validateInterfaces(names); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// Interface 按名称返回接口配置
func (c *Config) Interface(name string) (InterfaceConfig, bool) {
	for _, iface := range c.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return InterfaceConfig{}, false
}

// WithInterface 添加或替换同名接口配置
func (c *Config) WithInterface(iface InterfaceConfig) *Config {
	for i := range c.Interfaces {
		if c.Interfaces[i].Name == iface.Name {
			c.Interfaces[i] = iface
			return c
		}
	}
	c.Interfaces = append(c.Interfaces, iface)
	return c
}
