// Package quic 在受管数据报绑定之上提供 QUIC 端点
//
// Endpoint 不拥有 UDP 套接字：套接字及其注册表成员关系仍归
// ManagedDatagramSocketBinding 所有。关闭端点只关闭 quic.Transport，
// 绑定保持 BOUND 且仍在注册表中，由绑定自身的 Close 释放。
//
// # 使用示例
//
//	b, err := mgr.CreateDatagramSocket("quic", netip.MustParseAddrPort("127.0.0.1:0"))
//	if err != nil {
//	    return err
//	}
//	ep, err := quic.NewEndpoint(b)
//	if err != nil {
//	    return err
//	}
//	defer ep.Close()
//
//	serverTLS, clientTLS, err := quic.NewSelfSignedTLSConfig("netbind")
//	ln, err := ep.Listen(serverTLS, quic.DefaultConfig())
//	conn, err := ep.Dial(ctx, remote, clientTLS, quic.DefaultConfig())
package quic
