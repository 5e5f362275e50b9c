package spawn

import (
	"syscall"
)

// prepareExec prepares execve parameters
func prepareExec(exe string, argv, env []string) (*byte, []*byte, []*byte, error) {
	// make exec path
	exe0, err := syscall.BytePtrFromString(exe)
	if err != nil {
		return nil, nil, nil, err
	}
	// make exec args
	argvp, err := syscall.SlicePtrFromStrings(argv)
	if err != nil {
		return nil, nil, nil, err
	}
	// make env
	envp, err := syscall.SlicePtrFromStrings(env)
	if err != nil {
		return nil, nil, nil, err
	}
	return exe0, argvp, envp, nil
}

// prepareError wraps parameter preparation failures. BytePtrFromString
// reports strings with interior NUL bytes as EINVAL.
func prepareError(err error) error {
	if errno, ok := err.(syscall.Errno); ok {
		return spawnError(LocPrepare, errno)
	}
	return err
}
