// Package checkpoint decorates errors with the file and line where they passed through,
// so a failing disk operation reads almost like a stack trace.
// Every error attached to a checkpoint stays reachable through errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From decorates err with the caller position.
// It returns nil for a nil err and passes io.EOF and io.ErrUnexpectedEOF through untouched,
// as readers compare them by identity.
func From(err error) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap decorates prev with the caller position and an additional error describing what
// went wrong at this point, typically one of the package level sentinels:
//  var ErrDiskFull = errors.New("disk full")
//
//  func grow() error {
//  	err := allocate()
//  	return checkpoint.Wrap(err, ErrDiskFull)
//  }
// errors.Is then matches both ErrDiskFull and whatever allocate returned.
// Wrap returns nil if prev is nil, and io.EOF unchanged.
func Wrap(prev, err error) error {
	if prev == nil || prev == io.EOF {
		return prev
	}

	return newCheckpoint(err, prev)
}

// Wrapf is Wrap with a formatted message. The %w verb may be used to keep a sentinel
// matchable.
func Wrapf(prev error, format string, args ...interface{}) error {
	if prev == nil || prev == io.EOF {
		return prev
	}

	return newCheckpoint(fmt.Errorf(format, args...), prev)
}

func newCheckpoint(err, prev error) *checkpoint {
	// Skip newCheckpoint and the exported helper.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:      err,
		prev:     prev,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) position() string {
	if !e.callerOk {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

func (e *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString("at ")
	b.WriteString(e.position())
	if e.err != nil {
		b.WriteString("\n\t")
		b.WriteString(e.err.Error())
	}

	if e.prev == nil {
		return b.String()
	}

	b.WriteString("\n")
	if _, ok := e.prev.(*checkpoint); ok {
		b.WriteString(e.prev.Error())
	} else {
		b.WriteString("at unknown\n\t")
		b.WriteString(strings.ReplaceAll(e.prev.Error(), "\n", "\n\t"))
	}
	return b.String()
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
