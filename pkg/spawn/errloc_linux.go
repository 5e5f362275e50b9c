package spawn

import (
	"fmt"
	"syscall"
)

// ErrorLocation defines the phase where a spawn failed
type ErrorLocation int

// SpawnError defines the specific error and location where it failed
type SpawnError struct {
	Err      syscall.Errno
	Location ErrorLocation
	// Index is the position of the failing plan action, -1 when the
	// failure was not tied to an action
	Index int
}

// Location constants
const (
	LocResolve ErrorLocation = iota + 1
	LocPrepare
	LocFork
	LocCloseRead
	LocClose
	LocDup2
	LocFchdir
	LocSetRlimit
	LocSeccomp
	LocExecve
	LocRead
)

var locToString = []string{
	"unknown",
	"resolve",
	"prepare",
	"fork",
	"close_read",
	"close",
	"dup2",
	"fchdir",
	"setrlimit",
	"seccomp",
	"execve",
	"read",
}

func (e ErrorLocation) String() string {
	if e >= LocResolve && e <= LocRead {
		return locToString[e]
	}
	return "unknown"
}

func (e SpawnError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s(%d): %s", e.Location.String(), e.Index, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Location.String(), e.Err.Error())
}

// Unwrap exposes the underlying errno so that errors.Is matches against
// syscall errors
func (e SpawnError) Unwrap() error {
	return e.Err
}

// spawnError builds a SpawnError for failures outside action replay
func spawnError(loc ErrorLocation, err syscall.Errno) SpawnError {
	return SpawnError{Err: err, Location: loc, Index: -1}
}
