package tofs

import (
	"errors"
	"io/fs"

	"github.com/spf13/afero"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs just wraps the afero implementation to be compatible with fs.FS.
type GoFs struct {
	*AferoFs
}

// NewGoFS exposes a mounted volume as fs.FS.
func NewGoFS(volume *Fs, caseSensitive bool) *GoFs {
	return &GoFs{NewAferoFs(volume, caseSensitive)}
}

// NewIOFS exposes a mounted volume as fs.FS through afero.IOFS, which implements the
// optional fs interfaces as well.
func NewIOFS(volume *Fs, caseSensitive bool) afero.IOFS {
	return afero.IOFS{Fs: NewAferoFs(volume, caseSensitive)}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.AferoFs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}

func (g GoFs) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	return g.AferoFs.Stat(name)
}
