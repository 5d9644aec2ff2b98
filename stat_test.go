package tofs

import (
	"os"
	"testing"
	"time"
)

func TestEntry_FileInfo(t *testing.T) {
	modTime := time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)
	entry := Entry{Index: 3, Name: "README.TXT", Size: 42, ModTime: modTime, DateValid: true}

	info := entry.FileInfo()
	if info.Name() != "README.TXT" {
		t.Errorf("Name() = %q, want %q", info.Name(), "README.TXT")
	}
	if info.Size() != 42 {
		t.Errorf("Size() = %v, want 42", info.Size())
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		t.Errorf("Mode() = %v, want a regular file", info.Mode())
	}
	if !info.ModTime().Equal(modTime) {
		t.Errorf("ModTime() = %v, want %v", info.ModTime(), modTime)
	}
	if sys, ok := info.Sys().(Entry); !ok || sys.Index != 3 {
		t.Errorf("Sys() = %#v, want the entry", info.Sys())
	}
}

func Test_rootInfo(t *testing.T) {
	info := rootInfo{name: ".", date: time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)}

	if !info.IsDir() || info.Mode()&os.ModeDir == 0 {
		t.Errorf("Mode() = %v, want a directory", info.Mode())
	}
	if info.Size() != 0 {
		t.Errorf("Size() = %v, want 0", info.Size())
	}
	if info.Name() != "." {
		t.Errorf("Name() = %q, want %q", info.Name(), ".")
	}
}
