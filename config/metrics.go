package config

import (
	"regexp"
)

// metricNamePattern Prometheus 指标名称规则
var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "netbind",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace != "" && !metricNamePattern.MatchString(c.Namespace) {
		return invalidf("metrics: invalid namespace %q", c.Namespace)
	}
	return nil
}

// WithEnabled 设置是否启用指标
func (c MetricsConfig) WithEnabled(enabled bool) MetricsConfig {
	c.Enabled = enabled
	return c
}
