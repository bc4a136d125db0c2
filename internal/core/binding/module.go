package binding

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/netif"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// Config 绑定管理器配置
type Config struct {
	Group       config.SocketBindingGroupConfig
	DrainOnStop bool
}

// ConfigFromUnified 从统一配置创建绑定管理器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return Config{
			Group:       config.DefaultSocketBindingGroupConfig(),
			DrainOnStop: config.DefaultRegistryConfig().DrainOnStop,
		}
	}
	return Config{
		Group:       cfg.SocketBindings,
		DrainOnStop: cfg.Registry.DrainOnStop,
	}
}

// Params 模块依赖参数
type Params struct {
	fx.In

	Config     *config.Config `optional:"true"`
	Named      pkgif.NamedBindingRegistry
	Unnamed    pkgif.UnnamedBindingRegistry
	Interfaces *netif.InterfaceSet       `optional:"true"`
	Failures   pkgif.BindFailureObserver `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("binding",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 提供绑定管理器
func ProvideManager(p Params) (*Manager, error) {
	cfg := ConfigFromUnified(p.Config)

	opts := []ManagerOption{
		WithSocketBindingGroup(cfg.Group),
		WithDrainOnClose(cfg.DrainOnStop),
		WithFailureObserver(p.Failures),
	}
	if p.Interfaces != nil {
		opts = append(opts, WithInterfaces(p.Interfaces))
	}
	return NewManager(p.Named, p.Unnamed, opts...)
}

// registerLifecycle 停止时关闭管理器
func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
}
