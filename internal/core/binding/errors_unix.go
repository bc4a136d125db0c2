//go:build unix

package binding

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// classifyBindError 按 errno 分类绑定失败原因
func classifyBindError(err error) string {
	switch {
	case errors.Is(err, unix.EADDRINUSE):
		return ReasonAddressInUse
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM), errors.Is(err, os.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, unix.EADDRNOTAVAIL):
		return ReasonAddressNotAvailable
	default:
		return ReasonOther
	}
}
