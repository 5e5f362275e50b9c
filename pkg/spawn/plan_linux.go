package spawn

import (
	"syscall"

	"github.com/criyle/go-spawn/pkg/seccomp"
)

// Flag controls optional spawn behavior
type Flag uint32

const (
	// UsePath resolves a bare executable name against the search path
	// before exec, the way execvp does. Names containing a path
	// separator are never resolved.
	UsePath Flag = 1 << iota
)

// action opcodes replayed in the child
type actionOp int

const (
	opClose actionOp = iota + 1
	opDup2
	opFchdir
	opSetRlimit
	opSeccomp
)

// action is one prepared child side step. Fields are plain integers and
// pointers pinned at append time so that replay allocates nothing after
// fork.
type action struct {
	op actionOp

	// close / fchdir: arg0 is the fd
	// dup2: arg0 is oldfd, arg1 is newfd
	arg0, arg1 int

	// setrlimit
	res  int
	rlim syscall.Rlimit

	// seccomp
	filter *syscall.SockFprog
}

// Plan is an ordered sequence of actions applied in a spawned child before
// exec. Actions run in exactly the order they were added and are never
// merged or reordered. The zero value is a valid empty plan.
//
// A Plan must not be mutated while a Spawn using it is in flight. Spawn
// itself only reads the plan, so a finished plan may be shared by
// concurrent Spawn calls.
type Plan struct {
	flags   Flag
	actions []action
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
	return len(p.actions)
}

// AddClose appends close(fd). The descriptor is not validated here; a bad
// fd surfaces as an indexed error when the plan replays.
func (p *Plan) AddClose(fd int) {
	p.actions = append(p.actions, action{op: opClose, arg0: fd})
}

// AddDup2 appends dup2(oldfd, newfd). The duplicate never carries the
// close-on-exec flag, including when oldfd equals newfd.
func (p *Plan) AddDup2(oldfd, newfd int) {
	p.actions = append(p.actions, action{op: opDup2, arg0: oldfd, arg1: newfd})
}

// AddFchdir appends fchdir(fd) to change the working directory to an
// already opened directory descriptor.
func (p *Plan) AddFchdir(fd int) {
	p.actions = append(p.actions, action{op: opFchdir, arg0: fd})
}

// AddSetRlimit appends prlimit64(0, res, &rlim) for a resource such as
// syscall.RLIMIT_NOFILE.
func (p *Plan) AddSetRlimit(res int, rlim syscall.Rlimit) {
	p.actions = append(p.actions, action{op: opSetRlimit, res: res, rlim: rlim})
}

// AddSeccomp appends prctl(PR_SET_NO_NEW_PRIVS) followed by loading the
// filter. The kernel program is pinned here so that replay needs no
// further conversion; the filter must not be modified afterwards.
func (p *Plan) AddSeccomp(filter seccomp.Filter) {
	prog := &syscall.SockFprog{}
	if len(filter) > 0 {
		prog = filter.SockFprog()
	}
	p.actions = append(p.actions, action{op: opSeccomp, filter: prog})
}

// Reset drops all actions and flags so the plan can be rebuilt. It must
// not be called while a Spawn using this plan is in flight; a child
// already past exec is unaffected.
func (p *Plan) Reset() {
	p.flags = 0
	p.actions = p.actions[:0]
}

// maxFd reports the highest descriptor number any action references, or
// -1 for none. The status pipe is kept above this so replay cannot land
// on it.
func (p *Plan) maxFd() int {
	m := -1
	for _, a := range p.actions {
		switch a.op {
		case opClose, opFchdir:
			if a.arg0 > m {
				m = a.arg0
			}
		case opDup2:
			if a.arg0 > m {
				m = a.arg0
			}
			if a.arg1 > m {
				m = a.arg1
			}
		}
	}
	return m
}
