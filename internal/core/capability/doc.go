// Package capability 维护运行时能力及其发布记录
//
// 能力是管理模型中的命名服务点。本包提供两类能力：
//
//   - org.wildfly.network.interface: 动态能力，每个命名接口一条记录，
//     值为 *netif.NetworkInterfaceBinding
//   - org.wildfly.network.socket-binding: 动态能力，每个活动的命名绑定
//     一条记录，值为 interfaces.SocketBindingRecord
//
// 套接字绑定记录由 Publisher 根据注册表事件发布和撤回，Publisher
// 只读取事件中的 {name, bindAddress}，从不改变绑定状态。
package capability
