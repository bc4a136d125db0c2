package registry

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// Params 注册表依赖参数
type Params struct {
	fx.In

	EventBus pkgif.EventBus        `optional:"true"`
	Observer pkgif.BindingObserver `optional:"true"`
	Clock    clock.Clock           `optional:"true"`
}

// Result 注册表 Fx 输出
type Result struct {
	fx.Out

	Named   *NamedRegistry
	Unnamed *UnnamedRegistry

	NamedRegistry   pkgif.NamedBindingRegistry
	UnnamedRegistry pkgif.UnnamedBindingRegistry
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideRegistries),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistries 提供命名与未命名注册表
func ProvideRegistries(p Params) (Result, error) {
	opts := []Option{
		WithEventBus(p.EventBus),
		WithObserver(p.Observer),
	}
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}

	named, err := NewNamedRegistry(opts...)
	if err != nil {
		return Result{}, err
	}
	unnamed, err := NewUnnamedRegistry(opts...)
	if err != nil {
		_ = named.Close()
		return Result{}, err
	}

	return Result{
		Named:           named,
		Unnamed:         unnamed,
		NamedRegistry:   named,
		UnnamedRegistry: unnamed,
	}, nil
}

// registerLifecycle 注册生命周期钩子
//
// 注册表在绑定管理器之前创建，因此在其之后停止：此时绑定应已全部排空。
func registerLifecycle(lc fx.Lifecycle, named *NamedRegistry, unnamed *UnnamedRegistry) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return multierr.Combine(named.Close(), unnamed.Close())
		},
	})
}
