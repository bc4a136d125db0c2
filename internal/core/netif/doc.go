// Package netif 解析命名网络接口
//
// 配置中的每个命名接口（例如 "public"）通过一种选择条件解析为一个
// NetworkInterfaceBinding，套接字绑定再以 {接口地址, 端口} 组成绑定地址。
//
// # 选择条件
//
//   - inet_address: 固定地址
//   - any_address: 通配地址 0.0.0.0 / ::
//   - loopback: 环回地址 127.0.0.1 / ::1
//   - nic: 主机网卡上第一个匹配地址族的地址
//
// 多个候选地址时取第一个匹配项，不做进一步的优选。
//
// # 使用示例
//
//	r := netif.NewResolver()
//	set, err := r.ResolveAll(cfg.Interfaces)
//	public, err := set.Lookup("public")
//	addr := public.AddrPort(8080)
package netif
