//go:build unix

// Package lookpath resolves bare command names against a colon separated
// search path, the way execvp does. The search path is injectable so that
// callers (and tests) are not tied to the process environment.
package lookpath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultPath is the fallback search path used when neither the resolver
// nor the environment provides one.
const DefaultPath = "/usr/local/bin:/usr/bin:/bin"

// ErrNotFound is returned when every directory in the search path was
// scanned without producing an executable candidate.
var ErrNotFound = errors.New("executable file not found in $PATH")

// Resolver scans an explicit search path instead of the process environment.
type Resolver struct {
	// Path is the colon separated directory list to scan.
	// When empty, Default substitutes.
	Path string
	// Default substitutes for an empty Path. When Default is also empty,
	// DefaultPath applies.
	Default string
}

// Resolve maps a command name to the path execve should receive.
//
// A name containing a path separator is returned unchanged without any
// scan. Otherwise each directory in the search path is probed in listed
// order for a regular file executable by the caller; an empty list entry
// means the current directory. Directories that are missing or unreadable
// are skipped, so a broken early entry never masks a later match. Only
// exhausting the whole list yields ErrNotFound.
func (r Resolver) Resolve(name string) (string, error) {
	if strings.Contains(name, "/") {
		return name, nil
	}
	path := r.Path
	if path == "" {
		path = r.Default
	}
	if path == "" {
		path = DefaultPath
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, name)
		if err := findExecutable(p); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Resolve searches the current process PATH for name.
func Resolve(name string) (string, error) {
	path, _ := os.LookupEnv("PATH")
	return Resolver{Path: path}.Resolve(name)
}

const pathPrefix = "PATH="

// FromEnv builds a Resolver from an environment in execve form.
// The last PATH entry wins.
func FromEnv(env []string) Resolver {
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], pathPrefix) {
			return Resolver{Path: env[i][len(pathPrefix):]}
		}
	}
	return Resolver{}
}

func findExecutable(p string) error {
	d, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !d.Mode().IsRegular() {
		return syscall.EACCES
	}
	return unix.Faccessat(unix.AT_FDCWD, p, unix.X_OK, unix.AT_EACCESS)
}
