//go:build !linux || !cgo

package libseccomp

import (
	"fmt"
	"runtime"

	"github.com/criyle/go-spawn/pkg/seccomp"
)

var errNotImplemented = fmt.Errorf("libseccomp: unsupported on platform %s", runtime.GOOS)

// Build is only supported on linux
func (b Builder) Build() (seccomp.Filter, error) {
	return nil, errNotImplemented
}
