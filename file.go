package tofs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/tofs/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write file completely")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// File is an afero.File on a volume: either a file opened through a Handle or the root
// directory.
type File struct {
	afs  *AferoFs
	name string

	// handle is nil for the root directory.
	handle *Handle
	cursor *Cursor

	isReadOnly bool
	isAppend   bool
}

func (f *File) isDirectory() bool {
	return f.handle == nil
}

// Close closes the handle. For a writable file the whole volume is flushed.
func (f *File) Close() error {
	if f.handle == nil {
		f.cursor = nil
		return nil
	}

	err := f.handle.Close()
	if err == nil && !f.isReadOnly {
		err = f.afs.fs.Flush()
	}
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.isDirectory() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	n, err = f.handle.Read(p)
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, err
}

// ReadAt reads without moving the offset of the file.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.isDirectory() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}
	if off < 0 {
		return 0, checkpoint.Wrap(syscall.EINVAL, ErrReadFile)
	}
	if len(p) == 0 {
		return 0, nil
	}

	size, err := f.handle.Size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}
	// Reading over the end makes no sense.
	if int64(size) <= off {
		return 0, io.EOF
	}

	previous, err := f.handle.Seek(int(off))
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}
	defer f.handle.Seek(previous)

	for n < len(p) {
		read, err := f.handle.Read(p[n:])
		n += read
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, checkpoint.Wrap(err, ErrReadFile)
		}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read and Write operations
// except ReadAt and WriteAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.isDirectory() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrSeekFile)
	}

	current, err := f.handle.Size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrSeekFile)
	}
	size := int64(current)
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = int64(f.handle.Offset()) + offset
	case io.SeekEnd:
		offset = size + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > size {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	if _, err := f.handle.Seek(int(offset)); err != nil {
		return 0, checkpoint.Wrap(err, ErrSeekFile)
	}
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	if f.isDirectory() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrWriteFile)
	}
	if f.isReadOnly {
		return 0, checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}

	if f.isAppend {
		size, err := f.handle.Size()
		if err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
		if _, err := f.handle.Seek(size); err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
	}
	n, err = f.handle.Write(p)
	if err != nil {
		return n, checkpoint.Wrap(err, ErrWriteFile)
	}
	return n, nil
}

// WriteAt writes without moving the offset of the file. Writing behind the end fills the
// gap with zeros.
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if f.isDirectory() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrWriteFile)
	}
	if f.isReadOnly {
		return 0, checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}
	if f.isAppend {
		return 0, checkpoint.Wrap(errors.New("WriteAt in append mode"), ErrWriteFile)
	}
	if off < 0 {
		return 0, checkpoint.Wrap(syscall.EINVAL, ErrWriteFile)
	}

	size, err := f.handle.Size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}
	if int64(size) < off {
		if err := f.handle.SetSize(int(off)); err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
	}

	previous, err := f.handle.Seek(int(off))
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}
	defer f.handle.Seek(previous)

	n, err = f.handle.Write(p)
	if err != nil {
		return n, checkpoint.Wrap(err, ErrWriteFile)
	}
	return n, nil
}

func (f *File) Name() string {
	return f.name
}

// Readdir reads the contents of the root directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory() {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}
	if f.cursor == nil {
		f.cursor = f.afs.fs.Examine()
	}

	var result []os.FileInfo
	for count <= 0 || len(result) < count {
		entry, err := f.cursor.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return result, checkpoint.Wrap(err, ErrReadDir)
		}
		result = append(result, entry.FileInfo())
	}

	if count > 0 && len(result) == 0 {
		return nil, io.EOF
	}
	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.isDirectory() {
		return f.afs.rootInfo(), nil
	}

	entry, err := f.handle.Stat()
	if err != nil {
		return nil, err
	}
	return entry.FileInfo(), nil
}

// Sync flushes the whole volume.
func (f *File) Sync() error {
	return f.afs.fs.Flush()
}

func (f *File) Truncate(size int64) error {
	if f.isDirectory() {
		return checkpoint.Wrap(syscall.EISDIR, ErrWriteFile)
	}
	if f.isReadOnly {
		return checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}
	if size < 0 {
		return checkpoint.Wrap(syscall.EINVAL, ErrWriteFile)
	}
	return f.handle.SetSize(int(size))
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
