package spawn

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Reference to src/syscall/exec_linux.go
//
//go:norace
func forkAndSpawnInChild(plan *Plan, exe0 *byte, argv, env []*byte, p [2]int) (r1 uintptr, err1 syscall.Errno) {
	acts := plan.actions

	// Acquire the fork lock so that no other threads
	// create new fds that are not yet close-on-exec
	// before we fork.
	syscall.ForkLock.Lock()

	// About to call fork.
	// No more allocation or calls of non-assembly functions.
	beforeFork()

	r1, _, err1 = syscall.RawSyscall6(syscall.SYS_CLONE, uintptr(syscall.SIGCHLD), 0, 0, 0, 0, 0)
	if err1 != 0 || r1 != 0 {
		// in parent process, immediate return
		return
	}

	// In child process
	afterForkInChild()
	// Notice: cannot call any GO functions beyond this point

	pipe := p[1]

	// Close the read end so only the parent holds it
	if _, _, err1 = syscall.RawSyscall(syscall.SYS_CLOSE, uintptr(p[0]), 0, 0); err1 != 0 {
		childExitError(pipe, LocCloseRead, err1)
	}

	// Replay actions strictly in the order they were added. The first
	// failure reports its index and stops the replay.
	for i := 0; i < len(acts); i++ {
		switch acts[i].op {
		case opClose:
			_, _, err1 = syscall.RawSyscall(syscall.SYS_CLOSE, uintptr(acts[i].arg0), 0, 0)
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocClose, i, err1)
			}

		case opDup2:
			if acts[i].arg0 == acts[i].arg1 {
				// dup2(fd, fd) will not clear close on exec flag, need to reset the flag
				_, _, err1 = syscall.RawSyscall(syscall.SYS_FCNTL, uintptr(acts[i].arg0), syscall.F_SETFD, 0)
			} else {
				_, _, err1 = syscall.RawSyscall(syscall.SYS_DUP3, uintptr(acts[i].arg0), uintptr(acts[i].arg1), 0)
			}
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocDup2, i, err1)
			}

		case opFchdir:
			_, _, err1 = syscall.RawSyscall(syscall.SYS_FCHDIR, uintptr(acts[i].arg0), 0, 0)
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocFchdir, i, err1)
			}

		case opSetRlimit:
			// prlimit instead of setrlimit to avoid 32-bit limitation (linux > 3.2)
			_, _, err1 = syscall.RawSyscall6(syscall.SYS_PRLIMIT64, 0, uintptr(acts[i].res), uintptr(unsafe.Pointer(&acts[i].rlim)), 0, 0, 0)
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocSetRlimit, i, err1)
			}

		case opSeccomp:
			// no_new_privs is required to load a filter without CAP_SYS_ADMIN
			_, _, err1 = syscall.RawSyscall6(syscall.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0, 0)
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocSeccomp, i, err1)
			}
			_, _, err1 = syscall.RawSyscall(unix.SYS_SECCOMP, unix.SECCOMP_SET_MODE_FILTER, 0, uintptr(unsafe.Pointer(acts[i].filter)))
			if err1 != 0 {
				childExitErrorWithIndex(pipe, LocSeccomp, i, err1)
			}
		}
	}

	// time to exec
	_, _, err1 = syscall.RawSyscall(unix.SYS_EXECVE, uintptr(unsafe.Pointer(exe0)),
		uintptr(unsafe.Pointer(&argv[0])), uintptr(unsafe.Pointer(&env[0])))
	childExitError(pipe, LocExecve, err1)
	return
}

//go:nosplit
func childExitError(pipe int, loc ErrorLocation, err syscall.Errno) {
	childError := SpawnError{
		Err:      err,
		Location: loc,
		Index:    -1,
	}

	// send error code on pipe
	syscall.RawSyscall(unix.SYS_WRITE, uintptr(pipe), uintptr(unsafe.Pointer(&childError)), unsafe.Sizeof(childError))
	for {
		syscall.RawSyscall(syscall.SYS_EXIT, uintptr(err), 0, 0)
	}
}

//go:nosplit
func childExitErrorWithIndex(pipe int, loc ErrorLocation, idx int, err syscall.Errno) {
	childError := SpawnError{
		Err:      err,
		Location: loc,
		Index:    idx,
	}

	// send error code on pipe
	syscall.RawSyscall(unix.SYS_WRITE, uintptr(pipe), uintptr(unsafe.Pointer(&childError)), unsafe.Sizeof(childError))
	for {
		syscall.RawSyscall(syscall.SYS_EXIT, uintptr(err), 0, 0)
	}
}
