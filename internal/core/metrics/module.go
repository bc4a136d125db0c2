package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/config"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标命名空间
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultMetricsConfig()
	return Config{
		Enabled:   d.Enabled,
		Namespace: d.Namespace,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Result Metrics 模块输出
//
// 未启用时 Observer/Failures 为 nil，下游按可选依赖处理。
type Result struct {
	fx.Out

	Collector *Collector
	Gatherer  prometheus.Gatherer
	Observer  pkgif.BindingObserver
	Failures  pkgif.BindFailureObserver
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewCollectorFromParams),
	fx.Invoke(registerLifecycle),
)

// NewCollectorFromParams 从参数创建 Collector 并注册到 Registerer
//
// 未提供 Registerer 时使用独立的 prometheus.Registry。
func NewCollectorFromParams(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return Result{Gatherer: prometheus.NewRegistry()}, nil
	}

	reg := p.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gatherer, _ := reg.(prometheus.Gatherer)
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}

	c := NewCollector(cfg.Namespace)
	if err := c.Register(reg); err != nil {
		return Result{}, err
	}
	return Result{
		Collector: c,
		Gatherer:  gatherer,
		Observer:  c,
		Failures:  c,
	}, nil
}

// registerLifecycle 停止时从 Registerer 注销收集器
func registerLifecycle(lc fx.Lifecycle, p Params, c *Collector) {
	if c == nil || p.Registerer == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			c.Unregister(p.Registerer)
			return nil
		},
	})
}
