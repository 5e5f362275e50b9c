package seccomp

import (
	"syscall"

	elastic "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
)

// Policy describes a filter as syscall name lists. It assembles in pure Go
// so that no cgo or host libseccomp is needed.
type Policy struct {
	// Allow lists syscalls resolved to ActionAllow
	Allow []string
	// Block lists syscalls that fail with EPERM instead of the default action
	Block []string
	// Default is the action for syscalls matched by no rule
	Default Action
}

var actBlock = ActionErrno.WithReturnCode(int16(syscall.EPERM))

// Build assembles the policy into a kernel loadable filter
func (p Policy) Build() (Filter, error) {
	policy := elastic.Policy{
		DefaultAction: toElasticAction(p.Default),
	}
	if len(p.Allow) > 0 {
		policy.Syscalls = append(policy.Syscalls, elastic.SyscallGroup{
			Action: toElasticAction(ActionAllow),
			Names:  p.Allow,
		})
	}
	if len(p.Block) > 0 {
		policy.Syscalls = append(policy.Syscalls, elastic.SyscallGroup{
			Action: toElasticAction(actBlock),
			Names:  p.Block,
		})
	}

	insts, err := policy.Assemble()
	if err != nil {
		return nil, err
	}
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, err
	}

	filter := make(Filter, 0, len(raw))
	for _, in := range raw {
		filter = append(filter, syscall.SockFilter{
			Code: in.Op,
			Jt:   in.Jt,
			Jf:   in.Jf,
			K:    in.K,
		})
	}
	return filter, nil
}

// toElasticAction convert action to go-seccomp-bpf compatible action
func toElasticAction(a Action) elastic.Action {
	var action elastic.Action
	switch a.Action() {
	case ActionAllow:
		action = elastic.ActionAllow
	case ActionErrno:
		action = elastic.ActionErrno
	case ActionTrace:
		action = elastic.ActionTrace
	default:
		action = elastic.ActionKillProcess
	}
	// the least 16 bit of ret value is SECCOMP_RET_DATA
	action |= elastic.Action(uint16(a.ReturnCode()))
	return action
}
