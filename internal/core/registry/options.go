package registry

import (
	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// 注册表类别，用于日志与指标标签
const (
	// KindNamed 按名称索引的注册表
	KindNamed = "named"

	// KindUnnamed 未命名绑定注册表
	KindUnnamed = "unnamed"
)

// Option 注册表选项
type Option func(*options)

type options struct {
	clock    clock.Clock
	bus      pkgif.EventBus
	observer pkgif.BindingObserver
}

func newOptions(opts []Option) *options {
	o := &options{clock: clock.New()}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return o
}

// WithClock 设置时钟（测试可注入 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithEventBus 设置事件总线，注册/注销时发射事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithObserver 设置注册表观察者
func WithObserver(observer pkgif.BindingObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}
