// Package metrics 提供套接字绑定的 Prometheus 指标
//
// Collector 同时实现注册表观察者（interfaces.BindingObserver）和绑定失败
// 观察者（interfaces.BindFailureObserver），由注册表和绑定管理器在
// 相应事件发生时回调。
//
// # 指标
//
//	<ns>_bindings_active{registry}                 当前活动绑定数
//	<ns>_binding_registrations_total{registry}     注册次数
//	<ns>_binding_unregistrations_total{registry}   注销次数
//	<ns>_binding_duplicate_names_total             名称冲突次数
//	<ns>_bind_failures_total{transport,reason}     操作系统拒绝绑定次数
//
// registry 标签取值为 named / unnamed。
//
// # 快速开始
//
//	c := metrics.NewCollector("netbind")
//	reg := prometheus.NewRegistry()
//	if err := c.Register(reg); err != nil {
//	    return err
//	}
//	named, _ := registry.NewNamedRegistry(registry.WithObserver(c))
//
// 回调都是非阻塞的，可以在注册表锁内调用。
package metrics
