//go:build linux && cgo

package libseccomp

import (
	"io"
	"os"
	"syscall"
	"unsafe"

	libseccomp "github.com/seccomp/libseccomp-golang"

	"github.com/criyle/go-spawn/pkg/seccomp"
)

var actBlock = libseccomp.ActErrno.SetReturnCode(int16(syscall.EPERM))

// Build builds the filter
func (b Builder) Build() (seccomp.Filter, error) {
	filter, err := libseccomp.NewFilter(toScmpAction(b.Default))
	if err != nil {
		return nil, err
	}
	defer filter.Release()

	if err = addFilterActions(filter, b.Allow, libseccomp.ActAllow); err != nil {
		return nil, err
	}
	if err = addFilterActions(filter, b.Block, actBlock); err != nil {
		return nil, err
	}
	return ExportBPF(filter)
}

// ExportBPF convert libseccomp filter to kernel readable BPF content
func ExportBPF(filter *libseccomp.ScmpFilter) (seccomp.Filter, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	// export BPF to pipe
	go func() {
		filter.ExportBPF(w)
		w.Close()
	}()

	// get BPF binary
	bin, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return filterFromBPF(bin)
}

// filterFromBPF directly converts the exported instruction bytes
func filterFromBPF(bin []byte) (seccomp.Filter, error) {
	const instSize = int(unsafe.Sizeof(syscall.SockFilter{}))
	if len(bin)%instSize != 0 {
		return nil, syscall.EINVAL
	}
	n := len(bin) / instSize
	if n == 0 {
		return seccomp.Filter{}, nil
	}
	filter := make(seccomp.Filter, n)
	copy(filter, unsafe.Slice((*syscall.SockFilter)(unsafe.Pointer(&bin[0])), n))
	return filter, nil
}

func addFilterActions(filter *libseccomp.ScmpFilter, names []string, action libseccomp.ScmpAction) error {
	for _, s := range names {
		if err := addFilterAction(filter, s, action); err != nil {
			return err
		}
	}
	return nil
}

func addFilterAction(filter *libseccomp.ScmpFilter, name string, action libseccomp.ScmpAction) error {
	syscallID, err := libseccomp.GetSyscallFromName(name)
	if err != nil {
		return err
	}
	if err = filter.AddRule(syscallID, action); err != nil {
		return err
	}
	return nil
}

// toScmpAction convert action to libseccomp compatible action
func toScmpAction(a seccomp.Action) libseccomp.ScmpAction {
	var action libseccomp.ScmpAction
	switch a.Action() {
	case seccomp.ActionAllow:
		action = libseccomp.ActAllow
	case seccomp.ActionErrno:
		action = libseccomp.ActErrno
	case seccomp.ActionTrace:
		action = libseccomp.ActTrace
	default:
		action = libseccomp.ActKillProcess
	}
	if code := a.ReturnCode(); code != 0 {
		action = action.SetReturnCode(code)
	}
	return action
}
