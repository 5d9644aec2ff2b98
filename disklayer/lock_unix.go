//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package disklayer

import (
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

type fder interface {
	Fd() uintptr
}

// lockImage takes an advisory lock on images living on the OS filesystem.
// Writers lock exclusively, readers shared. In-memory images are not locked.
func lockImage(file afero.File, readOnly bool) (func() error, error) {
	f, ok := file.(fder)
	if !ok {
		return nil, nil
	}

	how := unix.LOCK_EX
	if readOnly {
		how = unix.LOCK_SH
	}
	fd := int(f.Fd())
	if err := unix.Flock(fd, how|unix.LOCK_NB); err != nil {
		return nil, err
	}

	return func() error {
		return unix.Flock(fd, unix.LOCK_UN)
	}, nil
}
