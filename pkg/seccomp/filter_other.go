//go:build !linux

package seccomp

// Filter is the BPF seccomp filter value. Filters can only be assembled
// and loaded on linux; the type exists so that consumers cross-compile.
type Filter []byte
