// Package spawn provides a posix_spawn style interface to fork and exec an
// executable with precise control over the child before the image loads.
// Callers build a Plan of descriptor, directory, resource limit and seccomp
// actions; the child replays them strictly in the order they were added and
// reports the first failure back with its action index and errno through a
// close-on-exec pipe.
//
// Between fork and exec no Go runtime service is available in the child.
// Everything the replay touches is prepared before the fork and the child
// half runs raw syscalls only. For the same reason search path resolution
// happens in the parent before forking.
//
// pipe2, dup3 requires kernel >= 2.6.27
// prlimit64 requires kernel >= 2.6.36
// seccomp requires kernel >= 3.5
package spawn
