// Package netbind 提供自注册的受管套接字绑定
//
// 进程内的任意组件都可以按符号名称获取一个绑定到网络地址的 TCP/UDP
// 套接字。中央注册表始终精确反映当前已绑定的套接字集合：
// 绑定成功后、返回调用方之前完成注册；关闭时先注销，再释放操作系统句柄。
//
// # 快速开始
//
//	srv, err := netbind.New(ctx,
//	    netbind.WithSocketBinding(config.SocketBindingConfig{
//	        Name:      "http",
//	        Port:      8080,
//	        Transport: config.TransportTCP,
//	    }),
//	    netbind.WithPortOffset(100),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	// 按名称查找已绑定的套接字
//	b, err := srv.Lookup("http")
//	ln := b.(net.Listener)
//	http.Serve(ln, handler)
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  Server (netbind.New)                                        │
//	├──────────────────────────────────────────────────────────────┤
//	│  binding.Manager     命名/未命名路由，配置驱动的 OpenAll       │
//	│  Managed*SocketBinding  绑定即注册，关闭先注销                 │
//	├──────────────────────────────────────────────────────────────┤
//	│  registry            命名注册表 / 未命名注册表                 │
//	│  capability          接口与套接字绑定能力发布                  │
//	│  netif               接口条件解析为绑定地址                    │
//	│  eventbus / metrics  注册事件与 Prometheus 指标                │
//	└──────────────────────────────────────────────────────────────┘
//
// # 生命周期
//
// New 只构建依赖图；Start 启动各模块并打开配置中的全部绑定；
// Stop 排空两个注册表（关闭每个仍然存活的绑定）；Close 幂等。
// Stop 之后服务器不能再次启动。
package netbind
