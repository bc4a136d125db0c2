package capability

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/internal/core/netif"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// Result 能力模块输出
type Result struct {
	fx.Out

	Registry           *Registry
	CapabilityRegistry pkgif.CapabilityRegistry
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("capability",
		fx.Provide(
			ProvideRegistry,
			ProvidePublisher,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 提供能力注册表
func ProvideRegistry() Result {
	r := NewRegistry()
	return Result{
		Registry:           r,
		CapabilityRegistry: r,
	}
}

// ProvidePublisher 提供套接字绑定能力发布者
func ProvidePublisher(caps pkgif.CapabilityRegistry, bus pkgif.EventBus) (*Publisher, error) {
	return NewPublisher(caps, bus)
}

// lifecycleParams 生命周期依赖
type lifecycleParams struct {
	fx.In

	LC         fx.Lifecycle
	Caps       pkgif.CapabilityRegistry
	Publisher  *Publisher
	Named      pkgif.NamedBindingRegistry `optional:"true"`
	Interfaces *netif.InterfaceSet        `optional:"true"`
}

// registerLifecycle 启动时发布接口能力并启动 Publisher
func registerLifecycle(p lifecycleParams) {
	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Interfaces != nil {
				if err := RegisterInterfaces(p.Caps, p.Interfaces); err != nil {
					return err
				}
			}
			return p.Publisher.Start(ctx, p.Named)
		},
		OnStop: func(_ context.Context) error {
			return p.Publisher.Stop()
		},
	})
}
