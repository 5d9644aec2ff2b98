package tofs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
)

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i%251) + 1
	}
	return data
}

func testingWritten(t *testing.T, fs *Fs, name string, data []byte) *Handle {
	t.Helper()
	h, err := fs.OpenFile(ModeNewFile, name, nil, true, true)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	n, err := h.Write(data)
	if err != nil || n != len(data) {
		t.Fatalf("Write() = %v, %v, want %v, nil", n, err, len(data))
	}
	return h
}

func readAll(t *testing.T, h *Handle) []byte {
	t.Helper()
	h.Seek(0)
	data, err := io.ReadAll(h)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return data
}

func TestHandle_Write_layout(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	fss, bs := testGeometry.FSSectorSize(), testGeometry.BlockSize()

	tests := []struct {
		name        string
		size        int
		wantBlocks  int
		wantLastLen int
	}{
		{name: "empty", size: 0, wantBlocks: 1, wantLastLen: 0},
		{name: "part of a sector", size: 10, wantBlocks: 1, wantLastLen: 10},
		{name: "one full sector", size: fss, wantBlocks: 1, wantLastLen: fss},
		{name: "into the second sector", size: 300, wantBlocks: 1, wantLastLen: 45},
		{name: "one full cluster", size: bs, wantBlocks: 1, wantLastLen: fss},
		{name: "into the second cluster", size: bs + 1, wantBlocks: 2, wantLastLen: 1},
		{name: "three clusters", size: 2*bs + 300, wantBlocks: 3, wantLastLen: 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pattern(tt.size)
			h := testingWritten(t, fs, "LAYOUT.BIN", data)

			if got, _ := h.Size(); got != tt.size {
				t.Errorf("Size() = %v, want %v", got, tt.size)
			}
			if got := fs.lastSectorLen(h.Index()); got != tt.wantLastLen {
				t.Errorf("lastSectorLen() = %v, want %v", got, tt.wantLastLen)
			}
			entry, err := h.Stat()
			if err != nil {
				t.Fatal(err)
			}
			if entry.Blocks != tt.wantBlocks {
				t.Errorf("Blocks = %v, want %v", entry.Blocks, tt.wantBlocks)
			}
			if got := readAll(t, h); !bytes.Equal(got, data) {
				t.Errorf("content differs, got %v bytes, want %v", len(got), len(data))
			}
		})
	}
}

func TestHandle_Write_overwrite(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	data := pattern(700)
	h := testingWritten(t, fs, "OVER.BIN", data)

	h.Seek(250)
	if _, err := h.Write([]byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	copy(data[250:], "0123456789")

	if got, _ := h.Size(); got != 700 {
		t.Errorf("Size() = %v, want 700", got)
	}
	if got := readAll(t, h); !bytes.Equal(got, data) {
		t.Error("content differs after overwriting across a sector boundary")
	}
}

func TestHandle_Write_cutByOtherHandle(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	fss := testGeometry.FSSectorSize()

	tests := []struct {
		name     string
		written  int
		cutTo    int
		wantSize int
	}{
		{name: "cut to zero", written: 400, cutTo: 0, wantSize: 1},
		{name: "cut inside the first sector", written: 400, cutTo: 10, wantSize: 11},
		{name: "cut into an earlier cluster", written: 2*testGeometry.BlockSize() + 20, cutTo: 300, wantSize: 301},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pattern(tt.written)
			h1 := testingWritten(t, fs, "SHARED.BIN", data)
			defer h1.Close()

			h2, err := fs.OpenFile(ModeOldFile, "SHARED.BIN", nil, true, false)
			if err != nil {
				t.Fatal(err)
			}
			if err := h2.SetSize(tt.cutTo); err != nil {
				t.Fatalf("SetSize() error = %v", err)
			}
			if err := h2.Close(); err != nil {
				t.Fatal(err)
			}

			n, err := h1.Write([]byte("x"))
			if err != nil || n != 1 {
				t.Fatalf("Write() = %v, %v, want 1, nil", n, err)
			}
			if got := h1.Offset(); got != tt.wantSize {
				t.Errorf("Offset() = %v, want %v", got, tt.wantSize)
			}
			if got, _ := h1.Size(); got != tt.wantSize {
				t.Errorf("Size() = %v, want %v", got, tt.wantSize)
			}
			if got := fs.lastSectorLen(h1.Index()); got > fss {
				t.Errorf("lastSectorLen() = %v, above the sector size %v", got, fss)
			}

			want := append(append([]byte(nil), data[:tt.cutTo]...), 'x')
			if got := readAll(t, h1); !bytes.Equal(got, want) {
				t.Errorf("content = %v bytes, want %v", len(got), len(want))
			}
		})
	}
}

func TestHandle_Write_diskFull(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)

	h, err := fs.OpenFile(ModeNewFile, "HUGE.BIN", nil, true, true)
	if err != nil {
		t.Fatal(err)
	}
	capacity := (fs.FreeSpace() + 1) * testGeometry.BlockSize()

	n, err := h.Write(make([]byte, capacity+10))
	if !errors.Is(err, ErrDiskFull) {
		t.Errorf("Write() error = %v, want %v", err, ErrDiskFull)
	}
	if n != capacity {
		t.Errorf("Write() = %v, want %v", n, capacity)
	}
	if got, _ := h.Size(); got != capacity {
		t.Errorf("Size() = %v, want %v", got, capacity)
	}
	if got := fs.FreeSpace(); got != 0 {
		t.Errorf("FreeSpace() = %v, want 0", got)
	}
}

func TestHandle_SetSize(t *testing.T) {
	tests := []struct {
		name     string
		initial  int
		size     int
		wantFree int
	}{
		{name: "shrink to part of the first sector", initial: 1000, size: 100, wantFree: 77},
		{name: "shrink to nothing", initial: 1000, size: 0, wantFree: 77},
		{name: "shrink on a cluster boundary", initial: 1500, size: 510, wantFree: 76},
		{name: "keep", initial: 300, size: 300, wantFree: 77},
		{name: "grow inside of the last cluster", initial: 100, size: 400, wantFree: 77},
		{name: "grow over clusters", initial: 100, size: 1400, wantFree: 75},
		{name: "grow an empty file", initial: 0, size: 600, wantFree: 76},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := testingFormatted(t, testGeometry)
			data := pattern(tt.initial)
			h := testingWritten(t, fs, "SIZE.BIN", data)
			h.Seek(tt.initial)

			if err := h.SetSize(tt.size); err != nil {
				t.Fatalf("SetSize() error = %v", err)
			}
			if got, _ := h.Size(); got != tt.size {
				t.Errorf("Size() = %v, want %v", got, tt.size)
			}
			if got := h.Offset(); got > tt.size {
				t.Errorf("Offset() = %v, beyond the size %v", got, tt.size)
			}
			if got := fs.FreeSpace(); got != tt.wantFree {
				t.Errorf("FreeSpace() = %v, want %v", got, tt.wantFree)
			}

			want := make([]byte, tt.size)
			if tt.size < tt.initial {
				copy(want, data[:tt.size])
			} else {
				copy(want, data)
			}
			if got := readAll(t, h); !bytes.Equal(got, want) {
				t.Error("content differs, grown bytes must read as zeros")
			}
		})
	}
}

func TestHandle_SetSize_diskFull(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	data := pattern(300)
	h := testingWritten(t, fs, "SMALL.BIN", data)
	free := fs.FreeSpace()

	err := h.SetSize(testGeometry.MaxBlocks() * testGeometry.BlockSize())
	if !errors.Is(err, ErrDiskFull) {
		t.Fatalf("SetSize() error = %v, want %v", err, ErrDiskFull)
	}

	if got, _ := h.Size(); got != 300 {
		t.Errorf("Size() = %v, want 300", got)
	}
	if got := fs.FreeSpace(); got != free {
		t.Errorf("FreeSpace() = %v, want %v", got, free)
	}
	if got := readAll(t, h); !bytes.Equal(got, data) {
		t.Error("content changed by a failed SetSize")
	}
}

func TestHandle_Read(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	data := pattern(600)
	h := testingWritten(t, fs, "READ.BIN", data)

	tests := []struct {
		name   string
		offset int
		size   int
		want   []byte
	}{
		{name: "start", offset: 0, size: 10, want: data[:10]},
		{name: "across sectors", offset: 250, size: 10, want: data[250:260]},
		{name: "across clusters", offset: 505, size: 10, want: data[505:515]},
		{name: "short at the end", offset: 595, size: 10, want: data[595:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.Seek(tt.offset)
			buf := make([]byte, tt.size)
			n, err := h.Read(buf)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !bytes.Equal(buf[:n], tt.want) {
				t.Errorf("Read() = %v, want %v", buf[:n], tt.want)
			}
			if got := h.Offset(); got != tt.offset+n {
				t.Errorf("Offset() = %v, want %v", got, tt.offset+n)
			}
		})
	}

	h.Seek(600)
	if n, err := h.Read(make([]byte, 10)); n != 0 || err != io.EOF {
		t.Errorf("Read() at the end = %v, %v, want 0, EOF", n, err)
	}
}

func TestHandle_Seek(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	h := testingWritten(t, fs, "SEEK.BIN", pattern(100))

	tests := []struct {
		name         string
		pos          int
		wantPrevious int
		wantOffset   int
	}{
		{name: "inside", pos: 40, wantPrevious: 100, wantOffset: 40},
		{name: "behind the end", pos: 500, wantPrevious: 40, wantOffset: 100},
		{name: "negative", pos: -3, wantPrevious: 100, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := h.Seek(tt.pos); got != tt.wantPrevious {
				t.Errorf("Seek() = %v, want %v", got, tt.wantPrevious)
			}
			if got := h.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %v, want %v", got, tt.wantOffset)
			}
		})
	}
}

func TestHandle_Close(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	h := testingWritten(t, fs, "CLOSE.BIN", pattern(10))

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := h.Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Read() error = %v, want %v", err, os.ErrClosed)
	}
	if _, err := h.Write([]byte{1}); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write() error = %v, want %v", err, os.ErrClosed)
	}
	if _, err := h.Seek(0); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Seek() error = %v, want %v", err, os.ErrClosed)
	}
	if _, err := h.Size(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Size() error = %v, want %v", err, os.ErrClosed)
	}
	if _, err := h.Stat(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Stat() error = %v, want %v", err, os.ErrClosed)
	}
	if err := h.SetSize(0); !errors.Is(err, os.ErrClosed) {
		t.Errorf("SetSize() error = %v, want %v", err, os.ErrClosed)
	}
}

func TestFs_OpenFile(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		exists   bool
		wantErr  error
		wantSize int
	}{
		{name: "old file, missing", mode: ModeOldFile, exists: false, wantErr: ErrFileNotFound},
		{name: "old file, existing", mode: ModeOldFile, exists: true, wantSize: 300},
		{name: "new file, missing", mode: ModeNewFile, exists: false, wantSize: 0},
		{name: "new file, existing", mode: ModeNewFile, exists: true, wantSize: 0},
		{name: "read write, missing", mode: ModeReadWrite, exists: false, wantSize: 0},
		{name: "read write, existing", mode: ModeReadWrite, exists: true, wantSize: 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := testingFormatted(t, testGeometry)
			if tt.exists {
				testingWritten(t, fs, "OPEN.BIN", pattern(300))
			}

			h, err := fs.OpenFile(tt.mode, "OPEN.BIN", nil, true, true)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("OpenFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenFile() error = %v", err)
			}
			if got, _ := h.Size(); got != tt.wantSize {
				t.Errorf("Size() = %v, want %v", got, tt.wantSize)
			}
			if h.Mode() != tt.mode {
				t.Errorf("Mode() = %v, want %v", h.Mode(), tt.mode)
			}
		})
	}
}

func TestFs_OpenFile_directoryFull(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)

	for i := 0; i < testGeometry.MaxFiles(); i++ {
		if _, err := fs.OpenFile(ModeNewFile, string(rune('A'+i))+".BIN", nil, true, false); err != nil {
			t.Fatalf("OpenFile() #%d error = %v", i, err)
		}
	}

	if _, err := fs.OpenFile(ModeNewFile, "LAST.BIN", nil, true, false); !errors.Is(err, ErrDirectoryFull) {
		t.Errorf("OpenFile() error = %v, want %v", err, ErrDirectoryFull)
	}
}

func TestFs_OpenIndex(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	written := testingWritten(t, fs, "INDEX.BIN", pattern(300))

	h, err := fs.OpenIndex(ModeOldFile, written.Index())
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := h.Size(); got != 300 {
		t.Errorf("Size() = %v, want 300", got)
	}
	if got := h.Name(); got != "INDEX.BIN" {
		t.Errorf("Name() = %q, want %q", got, "INDEX.BIN")
	}

	h, err = fs.OpenIndex(ModeNewFile, written.Index())
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := h.Size(); got != 0 {
		t.Errorf("Size() after ModeNewFile = %v, want 0", got)
	}

	if _, err := fs.OpenIndex(ModeOldFile, written.Index()+1); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("OpenIndex() of an unused entry error = %v, want %v", err, ErrFileNotFound)
	}
	if _, err := fs.OpenIndex(ModeOldFile, testGeometry.MaxFiles()); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("OpenIndex() out of range error = %v, want %v", err, ErrFileNotFound)
	}
}
