package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。未给出 interfaces 时使用 DefaultInterfaces。
//
// 示例 JSON:
//
//	{
//	  "interfaces": [{"name": "public", "inet_address": "127.0.0.1"}],
//	  "socket_bindings": {
//	    "default_interface": "public",
//	    "port_offset": 100,
//	    "bindings": [{"name": "http", "port": 8080, "transport": "tcp"}]
//	  }
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()

	// 切片元素会与已有元素合并解码，默认接口列表只在 JSON 未给出时补回
	cfg.Interfaces = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Interfaces == nil {
		cfg.Interfaces = DefaultInterfaces()
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置并验证
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile 将配置以缩进 JSON 写入文件
func SaveFile(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// CloneConfig 深拷贝配置
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	clone := *cfg
	clone.Interfaces = slices.Clone(cfg.Interfaces)
	clone.SocketBindings.Bindings = slices.Clone(cfg.SocketBindings.Bindings)
	return &clone
}
