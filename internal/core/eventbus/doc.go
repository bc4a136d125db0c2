// Package eventbus 实现进程内事件总线
//
// 提供类型安全的事件发布/订阅机制，支持：
//   - 多订阅者
//   - 缓冲区配置
//   - 发射器引用计数
//   - 有状态模式（Stateful）
//
// 注册表通过事件总线通知能力层绑定的注册与注销：
//
//	sub, _ := bus.Subscribe(new(pkgif.EvtBindingRegistered))
//	defer sub.Close()
//
//	for evt := range sub.Out() {
//	    e := evt.(pkgif.EvtBindingRegistered)
//	    // 发布能力记录
//	}
//
// # 并发安全
//
// Emit 永不阻塞：订阅者缓冲区满时丢弃事件并计数告警，
// 因此可以在注册表锁内安全调用。
package eventbus
