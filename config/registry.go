package config

import (
	"time"
)

// RegistryConfig 注册表配置
type RegistryConfig struct {
	// DrainOnStop 停止时关闭所有仍在注册表中的绑定
	DrainOnStop bool `json:"drain_on_stop"`

	// ShutdownTimeout 停止超时
	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

// DefaultRegistryConfig 返回默认注册表配置
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		DrainOnStop:     true,
		ShutdownTimeout: Duration(10 * time.Second),
	}
}

// Validate 验证注册表配置
func (c RegistryConfig) Validate() error {
	if c.ShutdownTimeout < 0 {
		return invalidf("registry: shutdown_timeout must not be negative")
	}
	return nil
}

// WithShutdownTimeout 设置停止超时
func (c RegistryConfig) WithShutdownTimeout(d time.Duration) RegistryConfig {
	c.ShutdownTimeout = Duration(d)
	return c
}

// WithDrainOnStop 设置停止时是否排空
func (c RegistryConfig) WithDrainOnStop(drain bool) RegistryConfig {
	c.DrainOnStop = drain
	return c
}
