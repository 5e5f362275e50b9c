package seccomp

import (
	"syscall"
	"testing"

	elastic "github.com/elastic/go-seccomp-bpf"
)

var defaultSyscallAllows = []string{
	"read", "write", "readv", "writev", "close", "fstat", "lseek", "dup", "dup3", "ioctl", "fcntl", "fadvise64",
	"mmap", "mprotect", "munmap", "brk", "mremap", "msync", "mincore", "madvise",
	"rt_sigaction", "rt_sigprocmask", "rt_sigreturn", "rt_sigpending", "sigaltstack",
	"getcwd", "exit", "exit_group", "execve",
	"gettimeofday", "getrlimit", "getrusage", "times", "clock_gettime", "restart_syscall",
}

func TestPolicyBuild(t *testing.T) {
	p := Policy{
		Allow:   defaultSyscallAllows,
		Block:   []string{"chdir", "fchdir"},
		Default: ActionKill,
	}
	filter, err := p.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(filter) == 0 {
		t.Fatal("Build returned empty filter")
	}
	prog := filter.SockFprog()
	if prog == nil || prog.Filter == nil {
		t.Fatal("SockFprog returned nil program")
	}
	if int(prog.Len) != len(filter) {
		t.Errorf("SockFprog Len = %d, want %d", prog.Len, len(filter))
	}
}

func TestPolicyBuildErrnoReturnData(t *testing.T) {
	p := Policy{
		Block:   []string{"chdir"},
		Default: ActionAllow,
	}
	filter, err := p.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	// blocked syscalls return EPERM in the data bits of the return word
	want := uint32(elastic.ActionErrno) | uint32(uint16(syscall.EPERM))
	found := false
	for _, in := range filter {
		if in.Code != syscall.BPF_RET|syscall.BPF_K {
			continue
		}
		if in.K == want {
			found = true
		}
		if in.K == uint32(elastic.ActionErrno) {
			t.Errorf("filter returns errno 0 for blocked syscalls")
		}
	}
	if !found {
		t.Errorf("filter has no return word %#x for blocked syscalls", want)
	}
}

func TestPolicyBuildUnknownSyscall(t *testing.T) {
	p := Policy{
		Allow:   []string{"definitely_not_a_syscall"},
		Default: ActionAllow,
	}
	if _, err := p.Build(); err == nil {
		t.Error("Build did not detect unknown syscall name")
	}
}

func TestActionReturnCode(t *testing.T) {
	a := ActionErrno.WithReturnCode(int16(syscall.EPERM))
	if a.Action() != ActionErrno {
		t.Errorf("Action = %v, want ActionErrno", a.Action())
	}
	if a.ReturnCode() != int16(syscall.EPERM) {
		t.Errorf("ReturnCode = %d, want %d", a.ReturnCode(), int16(syscall.EPERM))
	}
}

// BenchmarkPolicyBuild is around 0.1ms/op
func BenchmarkPolicyBuild(b *testing.B) {
	p := Policy{
		Allow:   defaultSyscallAllows,
		Default: ActionKill,
	}
	for i := 0; i < b.N; i++ {
		p.Build()
	}
}
