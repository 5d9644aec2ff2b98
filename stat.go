package tofs

import (
	"os"
	"time"
)

// FileInfo returns the entry as os.FileInfo. Sys returns the Entry itself.
func (e Entry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry Entry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name
}

func (e entryFileInfo) Size() int64 {
	return e.entry.Size
}

// Mode is the same for every file, there are neither directories nor permissions.
func (e entryFileInfo) Mode() os.FileMode {
	return 0666
}

func (e entryFileInfo) ModTime() time.Time {
	return e.entry.ModTime
}

func (e entryFileInfo) IsDir() bool {
	return false
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}

// rootInfo describes the only directory of a volume.
type rootInfo struct {
	name string
	date time.Time
}

func (r rootInfo) Name() string       { return r.name }
func (r rootInfo) Size() int64        { return 0 }
func (r rootInfo) Mode() os.FileMode  { return os.ModeDir | 0777 }
func (r rootInfo) ModTime() time.Time { return r.date }
func (r rootInfo) IsDir() bool        { return true }
func (r rootInfo) Sys() interface{}   { return nil }
