//go:build !linux

package spawn

import (
	"fmt"
	"runtime"
	"syscall"

	"github.com/criyle/go-spawn/pkg/seccomp"
)

var errNotImplemented = fmt.Errorf("spawn: unsupported on platform %s", runtime.GOOS)

// Flag controls optional spawn behavior
type Flag uint32

// UsePath resolves a bare executable name against the search path
const UsePath Flag = 1 << iota

// Plan is an ordered sequence of actions applied in a spawned child
// before exec. Only supported on linux.
type Plan struct {
	flags Flag
	n     int
}

// NewPlan creates an empty plan
func NewPlan() *Plan {
	return &Plan{}
}

// SetFlags replaces the whole flag set
func (p *Plan) SetFlags(flags Flag) {
	p.flags = flags
}

// Flags returns the current flag set
func (p *Plan) Flags() Flag {
	return p.flags
}

// Len returns the number of actions added so far
func (p *Plan) Len() int {
	return p.n
}

// AddClose appends close(fd)
func (p *Plan) AddClose(fd int) {
	p.n++
}

// AddDup2 appends dup2(oldfd, newfd)
func (p *Plan) AddDup2(oldfd, newfd int) {
	p.n++
}

// AddFchdir appends fchdir(fd)
func (p *Plan) AddFchdir(fd int) {
	p.n++
}

// AddSetRlimit appends a resource limit change
func (p *Plan) AddSetRlimit(res int, rlim syscall.Rlimit) {
	p.n++
}

// AddSeccomp appends loading a seccomp filter
func (p *Plan) AddSeccomp(filter seccomp.Filter) {
	p.n++
}

// Reset drops all actions and flags so the plan can be rebuilt
func (p *Plan) Reset() {
	p.flags = 0
	p.n = 0
}

// Spawn is only supported on linux
func Spawn(exe string, plan *Plan, argv, env []string) (int, error) {
	return 0, errNotImplemented
}
