package registry

import (
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// 注册表错误（与 pkg/interfaces 中的定义相同，便于调用方就近引用）
var (
	// ErrDuplicateBindingName 名称已被另一个活动绑定占用
	ErrDuplicateBindingName = pkgif.ErrDuplicateBindingName

	// ErrBindingNotRegistered 没有匹配的活动注册条目
	ErrBindingNotRegistered = pkgif.ErrBindingNotRegistered

	// ErrBindingNotFound 按名称查找不到活动绑定
	ErrBindingNotFound = pkgif.ErrBindingNotFound

	// ErrUnnamedBinding 未命名绑定不能进入按名称索引的注册表
	ErrUnnamedBinding = pkgif.ErrUnnamedBinding

	// ErrNilBinding 绑定为 nil
	ErrNilBinding = pkgif.ErrNilBinding

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = pkgif.ErrRegistryClosed
)
