package spawn

import (
	"errors"
	"syscall"
	"testing"
)

func TestErrorLocationString(t *testing.T) {
	tests := []struct {
		loc  ErrorLocation
		want string
	}{
		{LocResolve, "resolve"},
		{LocPrepare, "prepare"},
		{LocFork, "fork"},
		{LocCloseRead, "close_read"},
		{LocClose, "close"},
		{LocDup2, "dup2"},
		{LocFchdir, "fchdir"},
		{LocSetRlimit, "setrlimit"},
		{LocSeccomp, "seccomp"},
		{LocExecve, "execve"},
		{LocRead, "read"},
		{ErrorLocation(0), "unknown"},
		{ErrorLocation(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.loc), got, tt.want)
		}
	}
}

func TestSpawnErrorError(t *testing.T) {
	tests := []struct {
		err  SpawnError
		want string
	}{
		{SpawnError{Err: syscall.EBADF, Location: LocClose, Index: 2}, "close(2): bad file descriptor"},
		{SpawnError{Err: syscall.EBADF, Location: LocDup2, Index: 0}, "dup2(0): bad file descriptor"},
		{SpawnError{Err: syscall.ENOENT, Location: LocExecve, Index: -1}, "execve: no such file or directory"},
		{SpawnError{Err: syscall.ENOENT, Location: LocResolve, Index: -1}, "resolve: no such file or directory"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestSpawnErrorUnwrap(t *testing.T) {
	err := error(spawnError(LocExecve, syscall.ENOENT))
	if !errors.Is(err, syscall.ENOENT) {
		t.Errorf("errors.Is(%v, ENOENT) = false", err)
	}
	if errors.Is(err, syscall.EPERM) {
		t.Errorf("errors.Is(%v, EPERM) = true", err)
	}
}
