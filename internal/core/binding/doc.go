// Package binding 实现自注册的受管套接字绑定
//
// 受管绑定在绑定成功后、返回调用方之前把自己注册到共享注册表；
// 关闭时先从注册表注销，再释放操作系统套接字。因此注册表在任何时刻
// 都恰好反映当前已绑定的套接字集合。
//
// # 套接字类型
//
//   - ManagedDatagramSocketBinding: UDP，封装 *net.UDPConn
//   - ManagedServerSocketBinding: TCP，封装 *net.TCPListener，实现 net.Listener
//
// # 状态
//
//	StateCreated ──Bind──▶ StateBound ──Close──▶ StateClosed
//	     └────────────────Close──────────────────────▲
//
// # 锁
//
// 每个实例持有一把操作锁串行化 Bind 与 Close。注册表在注册/注销时会回调
// BindAddress 与 SocketBindingName，这两个方法只读取独立的状态锁，
// 不会与操作锁形成环。
//
// # Manager
//
// Manager 拥有命名与未命名注册表，按名称把套接字路由到对应注册表，
// 并负责按配置打开绑定组、在停止时排空所有活动绑定。
package binding
