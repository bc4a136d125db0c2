//go:build !unix

package binding

import (
	"errors"
	"os"
)

// classifyBindError 非 Unix 平台只识别权限错误
func classifyBindError(err error) string {
	if errors.Is(err, os.ErrPermission) {
		return ReasonPermissionDenied
	}
	return ReasonOther
}
