package netbind

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

// Option 用户配置选项函数
//
// 选项按传入顺序应用，后面的选项覆盖前面的设置。
type Option func(*serverConfig) error

// serverConfig 内部选项结构
type serverConfig struct {
	// config 统一配置
	config *config.Config

	// registerer Prometheus 注册器，为空时使用独立 Registry
	registerer prometheus.Registerer

	// clock 注册时间戳时钟
	clock clock.Clock

	// logLevel 日志级别
	logLevel *slog.Level

	// userFxOptions 用户扩展的 Fx 选项
	userFxOptions []fx.Option
}

// newServerConfig 创建默认选项
func newServerConfig() *serverConfig {
	return &serverConfig{
		config: config.NewConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 配置被深拷贝，之后对 cfg 的修改不影响服务器。
func WithConfig(cfg *config.Config) Option {
	return func(c *serverConfig) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		c.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *serverConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		c.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              接口与套接字绑定
// ════════════════════════════════════════════════════════════════════════════

// WithInterface 添加或替换命名网络接口
//
//	netbind.WithInterface(config.InterfaceConfig{Name: "public", InetAddress: "0.0.0.0"})
//	netbind.WithInterface(config.InterfaceConfig{Name: "management", Loopback: true})
func WithInterface(iface config.InterfaceConfig) Option {
	return func(c *serverConfig) error {
		c.config.WithInterface(iface)
		return nil
	}
}

// WithDefaultInterface 设置绑定组默认接口
func WithDefaultInterface(name string) Option {
	return func(c *serverConfig) error {
		c.config.SocketBindings = c.config.SocketBindings.WithDefaultInterface(name)
		return nil
	}
}

// WithSocketBinding 添加或替换命名套接字绑定
//
// 绑定在 Start 时打开。
func WithSocketBinding(b config.SocketBindingConfig) Option {
	return func(c *serverConfig) error {
		c.config.SocketBindings = c.config.SocketBindings.WithBinding(b)
		return nil
	}
}

// WithPortOffset 设置绑定组端口偏移
//
// 偏移只作用于非固定、非 0 的端口。
func WithPortOffset(offset int) Option {
	return func(c *serverConfig) error {
		c.config.SocketBindings = c.config.SocketBindings.WithPortOffset(offset)
		return nil
	}
}

// WithDrainOnStop 设置停止时是否排空注册表
func WithDrainOnStop(drain bool) Option {
	return func(c *serverConfig) error {
		c.config.Registry = c.config.Registry.WithDrainOnStop(drain)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              可观测性
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 启用或禁用 Prometheus 指标
func WithMetrics(enabled bool) Option {
	return func(c *serverConfig) error {
		c.config.Metrics = c.config.Metrics.WithEnabled(enabled)
		return nil
	}
}

// WithMetricsRegisterer 把指标注册到指定的 Registerer
//
// reg 同时实现 prometheus.Gatherer 时，Server.Gatherer 返回它本身。
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *serverConfig) error {
		if reg == nil {
			return errors.New("metrics registerer is nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithClock 设置注册时间戳使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(c *serverConfig) error {
		if clk == nil {
			return errors.New("clock is nil")
		}
		c.clock = clk
		return nil
	}
}

// WithLogLevel 设置全局日志级别
//
// 支持 debug/info/warn/error。
func WithLogLevel(level string) Option {
	return func(c *serverConfig) error {
		lvl, ok := log.ParseLevel(level)
		if !ok {
			return fmt.Errorf("unknown log level %q", level)
		}
		c.logLevel = &lvl
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              扩展
// ════════════════════════════════════════════════════════════════════════════

// WithFxOptions 添加用户自定义的 Fx 选项
//
// 可用于注入额外依赖或在启动前获取内部组件：
//
//	netbind.WithFxOptions(fx.Invoke(func(m *binding.Manager) { ... }))
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *serverConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
