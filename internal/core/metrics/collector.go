package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// Collector 套接字绑定指标收集器
type Collector struct {
	active          *prometheus.GaugeVec
	registrations   *prometheus.CounterVec
	unregistrations *prometheus.CounterVec
	duplicates      prometheus.Counter
	bindFailures    *prometheus.CounterVec
}

// 确保实现接口
var (
	_ pkgif.BindingObserver     = (*Collector)(nil)
	_ pkgif.BindFailureObserver = (*Collector)(nil)
)

// NewCollector 创建指标收集器
func NewCollector(namespace string) *Collector {
	return &Collector{
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bindings_active",
				Help:      "Number of socket bindings currently registered.",
			},
			[]string{"registry"},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_registrations_total",
				Help:      "Count of socket bindings registered after a successful bind.",
			},
			[]string{"registry"},
		),
		unregistrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_unregistrations_total",
				Help:      "Count of socket bindings unregistered on close.",
			},
			[]string{"registry"},
		),
		duplicates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_duplicate_names_total",
				Help:      "Count of registrations rejected because the name was taken.",
			},
		),
		bindFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bind_failures_total",
				Help:      "Count of bind attempts rejected by the operating system.",
			},
			[]string{"transport", "reason"},
		),
	}
}

// Collectors 返回全部 Prometheus 收集器
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.active,
		c.registrations,
		c.unregistrations,
		c.duplicates,
		c.bindFailures,
	}
}

// Register 把全部收集器注册到 reg
//
// 任一注册失败时撤销已注册的部分。
func (c *Collector) Register(reg prometheus.Registerer) error {
	var done []prometheus.Collector
	for _, col := range c.Collectors() {
		if err := reg.Register(col); err != nil {
			for _, d := range done {
				reg.Unregister(d)
			}
			return err
		}
		done = append(done, col)
	}
	return nil
}

// Unregister 从 reg 注销全部收集器
func (c *Collector) Unregister(reg prometheus.Registerer) {
	for _, col := range c.Collectors() {
		reg.Unregister(col)
	}
}

// OnRegistered 实现 BindingObserver
func (c *Collector) OnRegistered(registry string, _ pkgif.ManagedBinding) {
	c.active.WithLabelValues(registry).Inc()
	c.registrations.WithLabelValues(registry).Inc()
}

// OnUnregistered 实现 BindingObserver
func (c *Collector) OnUnregistered(registry string, _ pkgif.ManagedBinding) {
	c.active.WithLabelValues(registry).Dec()
	c.unregistrations.WithLabelValues(registry).Inc()
}

// OnDuplicate 实现 BindingObserver
func (c *Collector) OnDuplicate(string) {
	c.duplicates.Inc()
}

// OnBindFailure 实现 BindFailureObserver
func (c *Collector) OnBindFailure(transport pkgif.Transport, reason string) {
	c.bindFailures.WithLabelValues(string(transport), reason).Inc()
}

// IsAlreadyRegistered 是否为重复注册收集器的错误
func IsAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}
