package netif

import "errors"

var (
	// ErrInterfaceNotFound 接口（或主机网卡）不存在
	ErrInterfaceNotFound = errors.New("network interface not found")

	// ErrNoMatchingAddress 网卡上没有匹配地址族的地址
	ErrNoMatchingAddress = errors.New("no matching address on network interface")

	// ErrInvalidCriteria 接口选择条件无效
	ErrInvalidCriteria = errors.New("invalid interface criteria")
)
