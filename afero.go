package tofs

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/aligator/tofs/checkpoint"
	"github.com/spf13/afero"
)

// AferoFs exposes a volume as afero.Fs. The volume has a single directory, the root, so
// every path is either the root ("", "/" or ".") or a file name directly inside of it.
//
// Unlike the plain Fs, metadata changes are flushed right away: Remove, Rename and
// Chtimes write the directory, closing a writable File flushes the whole volume.
type AferoFs struct {
	fs            *Fs
	caseSensitive bool
}

// NewAferoFs wraps a mounted volume.
func NewAferoFs(fs *Fs, caseSensitive bool) *AferoFs {
	return &AferoFs{fs: fs, caseSensitive: caseSensitive}
}

// Volume returns the wrapped volume.
func (a *AferoFs) Volume() *Fs {
	return a.fs
}

// splitPath returns the file name of path, or isRoot for the root directory.
func splitPath(path string) (name string, isRoot bool, err error) {
	name = strings.TrimPrefix(path, "/")
	name = strings.TrimPrefix(name, "./")
	if name == "" || name == "." {
		return "", true, nil
	}
	if strings.Contains(name, "/") {
		return "", false, os.ErrNotExist
	}
	return name, false, nil
}

// osError makes an error of the volume match the error os would return.
func osError(err error) error {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return checkpoint.Wrap(err, os.ErrNotExist)
	case errors.Is(err, ErrFileExists), errors.Is(err, ErrRenameConflict):
		return checkpoint.Wrap(err, os.ErrExist)
	}
	return err
}

func pathError(op, path string, err error) error {
	return &os.PathError{Op: op, Path: path, Err: osError(err)}
}

func (a *AferoFs) Create(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Mkdir always fails, there are no subdirectories.
func (a *AferoFs) Mkdir(name string, perm os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: syscall.EPERM}
}

// MkdirAll only succeeds for the root, which always exists.
func (a *AferoFs) MkdirAll(path string, perm os.FileMode) error {
	if _, isRoot, _ := splitPath(path); isRoot {
		return nil
	}
	return &os.PathError{Op: "mkdir", Path: path, Err: syscall.EPERM}
}

func (a *AferoFs) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile supports O_RDONLY, O_WRONLY, O_RDWR, O_CREATE, O_EXCL, O_TRUNC and O_APPEND.
// perm is ignored.
func (a *AferoFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	fileName, isRoot, err := splitPath(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	readOnly := flag&(os.O_WRONLY|os.O_RDWR) == 0
	if isRoot {
		if !readOnly {
			return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EISDIR}
		}
		return &File{afs: a, name: name}, nil
	}

	_, findErr := a.fs.FindFile(fileName, nil, a.caseSensitive)
	exists := findErr == nil

	mode := ModeOldFile
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, pathError("open", name, checkpoint.From(ErrFileExists))
	case !exists && flag&os.O_CREATE == 0:
		return nil, pathError("open", name, findErr)
	case readOnly && (!exists || flag&os.O_TRUNC != 0):
		// Creating or emptying a file needs write access.
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EBADF}
	case exists && flag&os.O_TRUNC != 0:
		mode = ModeNewFile
	case !exists:
		mode = ModeReadWrite
	}

	h, err := a.fs.OpenFile(mode, fileName, nil, a.caseSensitive, true)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	f := &File{
		afs:        a,
		name:       name,
		handle:     h,
		isReadOnly: readOnly,
		isAppend:   flag&os.O_APPEND != 0,
	}
	return f, nil
}

func (a *AferoFs) Remove(name string) error {
	fileName, isRoot, err := splitPath(name)
	if err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	if isRoot {
		return &os.PathError{Op: "remove", Path: name, Err: syscall.EPERM}
	}

	if err := a.fs.Delete(fileName, nil, a.caseSensitive); err != nil {
		return pathError("remove", name, err)
	}
	if err := a.fs.FlushFileInfo(); err != nil {
		return pathError("remove", name, err)
	}
	return nil
}

// RemoveAll of the root deletes every file.
func (a *AferoFs) RemoveAll(path string) error {
	_, isRoot, err := splitPath(path)
	if err != nil {
		return nil
	}
	if !isRoot {
		if err := a.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	cursor := a.fs.Examine()
	for {
		entry, err := cursor.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return pathError("remove", path, err)
		}
		if err := a.fs.DeleteIndex(entry.Index); err != nil {
			return pathError("remove", path, err)
		}
	}
	if err := a.fs.FlushFileInfo(); err != nil {
		return pathError("remove", path, err)
	}
	return nil
}

func (a *AferoFs) Rename(oldname, newname string) error {
	oldFile, oldRoot, err := splitPath(oldname)
	if err != nil || oldRoot {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrInvalid}
	}
	newFile, newRoot, err := splitPath(newname)
	if err != nil || newRoot {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrInvalid}
	}

	if err := a.fs.Rename(oldFile, nil, a.caseSensitive, newFile); err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: osError(err)}
	}
	if err := a.fs.FlushFileInfo(); err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
	}
	return nil
}

func (a *AferoFs) Stat(name string) (os.FileInfo, error) {
	fileName, isRoot, err := splitPath(name)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	if isRoot {
		return a.rootInfo(), nil
	}

	entry, err := a.fs.Stat(fileName, nil, a.caseSensitive)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return entry.FileInfo(), nil
}

func (a *AferoFs) rootInfo() os.FileInfo {
	date, _ := a.fs.VolumeDate()
	return rootInfo{name: ".", date: date}
}

func (a *AferoFs) Name() string {
	return "tofs"
}

// Chmod is accepted for existing files but changes nothing.
func (a *AferoFs) Chmod(name string, mode os.FileMode) error {
	_, err := a.Stat(name)
	return err
}

// Chown is accepted for existing files but changes nothing.
func (a *AferoFs) Chown(name string, uid, gid int) error {
	_, err := a.Stat(name)
	return err
}

// Chtimes stores mtime as the date of the file. atime is ignored.
func (a *AferoFs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	fileName, isRoot, err := splitPath(name)
	if err != nil {
		return &os.PathError{Op: "chtimes", Path: name, Err: err}
	}
	if isRoot {
		return nil
	}

	if err := a.fs.SetDate(fileName, nil, a.caseSensitive, mtime); err != nil {
		return pathError("chtimes", name, err)
	}
	if err := a.fs.FlushFileInfo(); err != nil {
		return pathError("chtimes", name, err)
	}
	return nil
}
