// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockManagedBinding: 模拟 interfaces.ManagedBinding / TransportBinding
//   - MockBindingObserver: 记录注册表观察者回调
//   - MockBindingRegistry: 模拟 interfaces.ManagedBindingRegistry，可注入失败
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用次数，便于验证测试行为
//
// # 使用示例
//
//	b := mocks.NewMockManagedBinding("http", netip.MustParseAddrPort("127.0.0.1:8080"))
//	if err := reg.RegisterBinding(b); err != nil {
//	    t.Fatal(err)
//	}
package mocks
