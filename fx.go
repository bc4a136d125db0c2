package netbind

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-netbind/internal/core/binding"
	"github.com/dep2p/go-netbind/internal/core/capability"
	"github.com/dep2p/go-netbind/internal/core/eventbus"
	"github.com/dep2p/go-netbind/internal/core/metrics"
	"github.com/dep2p/go-netbind/internal/core/netif"
	"github.com/dep2p/go-netbind/internal/core/registry"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//
//	Config → EventBus → Metrics → Registry → Netif → Capability → Binding Manager
//
// OnStop 按相反顺序执行：管理器先排空绑定，能力发布者随后停止，
// 最后关闭注册表并注销指标。
func buildFxApp(cfg *serverConfig, srv *Server) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg.config),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 外部依赖（可选）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.registerer != nil {
		reg := cfg.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if cfg.clock != nil {
		clk := cfg.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		eventbus.Module(),   // 事件总线
		metrics.Module,      // Prometheus 指标
		registry.Module(),   // 命名/未命名注册表
		netif.Module(),      // 接口解析
		capability.Module(), // 能力发布
		binding.Module(),    // 绑定管理器
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Server 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectServerComponents(srv)))

	// ════════════════════════════════════════════════════════════════════════
	// 6. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// serverInjectParams Server 组件注入参数
type serverInjectParams struct {
	fx.In

	Manager      *binding.Manager
	Named        pkgif.NamedBindingRegistry
	Unnamed      pkgif.UnnamedBindingRegistry
	Capabilities pkgif.CapabilityRegistry
	EventBus     pkgif.EventBus
	Gatherer     prometheus.Gatherer
	Interfaces   *netif.InterfaceSet
}

// injectServerComponents 把 Fx 构造的组件注入 Server
func injectServerComponents(srv *Server) func(serverInjectParams) {
	return func(p serverInjectParams) {
		srv.manager = p.Manager
		srv.named = p.Named
		srv.unnamed = p.Unnamed
		srv.caps = p.Capabilities
		srv.bus = p.EventBus
		srv.gatherer = p.Gatherer
		srv.interfaces = p.Interfaces
	}
}
