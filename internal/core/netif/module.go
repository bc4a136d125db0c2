package netif

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/config"
)

// Config 接口解析配置
type Config struct {
	Interfaces []config.InterfaceConfig
}

// ConfigFromUnified 从统一配置创建接口解析配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return Config{Interfaces: config.DefaultInterfaces()}
	}
	return Config{Interfaces: cfg.Interfaces}
}

// Params 模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
	Source Source         `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("netif",
		fx.Provide(
			ProvideResolver,
			ProvideInterfaces,
		),
	)
}

// ProvideResolver 提供接口解析器
func ProvideResolver(p Params) *Resolver {
	return NewResolverWithSource(p.Source)
}

// ProvideInterfaces 解析配置中的全部接口
func ProvideInterfaces(p Params, r *Resolver) (*InterfaceSet, error) {
	return r.ResolveAll(ConfigFromUnified(p.Config).Interfaces)
}
