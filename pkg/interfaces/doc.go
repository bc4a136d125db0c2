// Package interfaces 定义 go-netbind 的公共接口
//
// 本包只包含接口、值类型与哨兵错误，不依赖任何内部实现：
//   - binding.go     - 受管绑定、注册表、注册表事件与观察者
//   - capability.go  - 运行时能力与能力注册表
//   - eventbus.go    - 进程内事件总线
//
// 一个接口文件对应 internal/core 下的一个实现目录：
//   - binding.go    → internal/core/registry, internal/core/binding
//   - capability.go → internal/core/capability
//   - eventbus.go   → internal/core/eventbus
package interfaces
