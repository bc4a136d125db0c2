package capability

import "errors"

var (
	// ErrCapabilityExists 能力定义已注册
	ErrCapabilityExists = errors.New("capability already registered")

	// ErrCapabilityNotFound 能力定义不存在
	ErrCapabilityNotFound = errors.New("capability not found")

	// ErrRecordNotFound 能力记录不存在
	ErrRecordNotFound = errors.New("capability record not found")

	// ErrInvalidCapability 能力定义或动态元素无效
	ErrInvalidCapability = errors.New("invalid capability")

	// ErrValueType 能力值类型不匹配
	ErrValueType = errors.New("capability value type mismatch")
)
