// Package libseccomp builds seccomp filters through the host libseccomp
// library. It needs cgo; the pure Go alternative lives in the parent
// seccomp package.
package libseccomp

import (
	"github.com/criyle/go-spawn/pkg/seccomp"
)

// Builder is used to build the filter
type Builder struct {
	// Allow lists syscalls resolved to allow
	Allow []string
	// Block lists syscalls that fail with EPERM instead of the default action
	Block []string
	// Default is the action for syscalls matched by no rule
	Default seccomp.Action
}
