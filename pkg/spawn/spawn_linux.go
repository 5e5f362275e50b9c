package spawn

import (
	"os"
	"strings"
	"syscall"
	"unsafe" // required for go:linkname.

	"golang.org/x/sys/unix"

	"github.com/criyle/go-spawn/pkg/lookpath"
)

//go:linkname beforeFork syscall.runtime_BeforeFork
func beforeFork()

//go:linkname afterFork syscall.runtime_AfterFork
func afterFork()

//go:linkname afterForkInChild syscall.runtime_AfterForkInChild
func afterForkInChild()

// Spawn forks the current process, replays the plan actions in the child
// in the order they were added and executes exe with argv and env.
// It returns the child pid once the exec succeeded.
//
// A nil plan is treated as an empty plan. A nil env inherits the current
// process environment; pass an empty non-nil slice for an empty one.
// When the plan carries UsePath and exe has no path separator, exe is
// resolved against the parent PATH before the fork.
//
// On failure no child process is left behind and the returned error
// reports the phase, the action index when one applies and the errno
// observed there.
func Spawn(exe string, plan *Plan, argv, env []string) (int, error) {
	if plan == nil {
		plan = &Plan{}
	}
	if len(argv) == 0 {
		return 0, spawnError(LocPrepare, syscall.EINVAL)
	}
	if env == nil {
		env = os.Environ()
	}

	// resolution must happen before fork since scanning directories is
	// not fork safe
	if plan.flags&UsePath != 0 && !strings.Contains(exe, "/") {
		resolved, err := lookpath.Resolve(exe)
		if err != nil {
			return 0, spawnError(LocResolve, syscall.ENOENT)
		}
		exe = resolved
	}

	exe0, argvp, envp, err := prepareExec(exe, argv, env)
	if err != nil {
		return 0, prepareError(err)
	}

	// status pipe, close-on-exec on both ends so a successful execve
	// reads as EOF in the parent
	var p [2]int
	if err := syscall.Pipe2(p[:], syscall.O_CLOEXEC); err != nil {
		return 0, prepareError(err)
	}

	// keep the write end above every descriptor the plan references so
	// that replayed actions cannot land on the status channel
	if m := plan.maxFd(); p[1] <= m {
		moved, err := unix.FcntlInt(uintptr(p[1]), unix.F_DUPFD_CLOEXEC, m+1)
		if err != nil {
			syscall.Close(p[0])
			syscall.Close(p[1])
			return 0, prepareError(err)
		}
		syscall.Close(p[1])
		p[1] = moved
	}

	pid, err1 := forkAndSpawnInChild(plan, exe0, argvp, envp, p)

	// restore all signals
	afterFork()
	syscall.ForkLock.Unlock()

	return waitChildExec(p, int(pid), err1)
}

// waitChildExec closes the child half of the status pipe and blocks until
// the child either execs (EOF) or reports a failure
func waitChildExec(p [2]int, pid int, err1 syscall.Errno) (int, error) {
	var childErr SpawnError

	syscall.Close(p[1])

	// clone syscall failed, no child exists
	if err1 != 0 {
		syscall.Close(p[0])
		return 0, spawnError(LocFork, err1)
	}

	var r1 uintptr
	for {
		r1, _, err1 = syscall.RawSyscall(syscall.SYS_READ, uintptr(p[0]), uintptr(unsafe.Pointer(&childErr)), unsafe.Sizeof(childErr))
		if err1 != syscall.EINTR {
			break
		}
	}
	syscall.Close(p[0])

	// EOF means the pipe closed on exec and the image is running
	if err1 == 0 && r1 == 0 {
		return pid, nil
	}

	var err error
	switch {
	case err1 != 0:
		err = spawnError(LocRead, err1)
	case r1 != unsafe.Sizeof(childErr):
		// torn payload
		err = spawnError(LocRead, syscall.EPIPE)
	default:
		err = childErr
	}
	handleChildFailed(pid)
	return 0, err
}

func handleChildFailed(pid int) {
	var wstatus syscall.WaitStatus
	// make sure not blocked
	syscall.Kill(pid, syscall.SIGKILL)
	// child failed; wait for it to exit, to make sure the zombies don't accumulate
	_, err := syscall.Wait4(pid, &wstatus, 0, nil)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	}
}
