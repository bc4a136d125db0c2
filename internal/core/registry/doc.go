// Package registry 实现受管绑定注册表
//
// 注册表是“名称 N 当前绑定在哪里”的唯一事实来源：
//
//   - NamedRegistry: 名称 → 绑定，名称唯一，重复注册另一个活动绑定返回
//     ErrDuplicateBindingName，同一实例重复注册为空操作
//   - UnnamedRegistry: 未命名绑定按实例跟踪，并按注册时的地址建立索引
//
// # 并发安全
//
// 每个注册表使用一把 sync.RWMutex 保护整张表，锁只覆盖表的修改与读取，
// 绝不跨越系统调用。读取方法返回快照，迭代期间不受并发修改影响。
//
// # 事件与指标
//
// 注册/注销成功后在锁内发射 EvtBindingRegistered / EvtBindingUnregistered
// （非阻塞），并回调 BindingObserver，保证同一名称的事件顺序与修改顺序一致。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    eventbus.Module(),
//	    registry.Module(),
//	    fx.Invoke(func(named *registry.NamedRegistry) {
//	        b, err := named.Lookup("http")
//	        // ...
//	    }),
//	)
package registry
