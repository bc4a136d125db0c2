package quic

import "errors"

var (
	// ErrEndpointClosed 端点已关闭
	ErrEndpointClosed = errors.New("quic endpoint closed")

	// ErrInvalidAddress 无效地址
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNilBinding 绑定为 nil
	ErrNilBinding = errors.New("nil datagram binding")

	// ErrNoCertificate 没有证书
	ErrNoCertificate = errors.New("no TLS certificate available")
)
