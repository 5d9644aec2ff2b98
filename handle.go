package tofs

import (
	"io"
	"os"

	"github.com/aligator/tofs/checkpoint"
)

// Mode selects how OpenFile treats existing and missing files.
type Mode int

const (
	// ModeOldFile opens an existing file.
	ModeOldFile Mode = iota
	// ModeNewFile empties an existing file or creates a new one.
	ModeNewFile
	// ModeReadWrite opens an existing file or creates a new one.
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeOldFile:
		return "old file"
	case ModeNewFile:
		return "new file"
	case ModeReadWrite:
		return "read write"
	}
	return "unknown"
}

// Handle is an open file. Several handles may point to the same file.
//
// Writes stay in the sector cache and changes of the size only reach the directory with
// Fs.FlushFileInfo or Fs.Flush.
type Handle struct {
	fs     *Fs
	idx    int
	mode   Mode
	offset int
	closed bool
}

// OpenFile opens the file name. A file created on the way gets typ as its type, or the
// type derived from its suffix if typ is nil, and the current date if setDate is set.
func (fs *Fs) OpenFile(mode Mode, name string, typ *uint16, caseSensitive, setDate bool) (*Handle, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(name, typ, caseSensitive)
	found := err == nil

	switch mode {
	case ModeNewFile:
		if found {
			fs.truncate(idx)
		} else {
			idx, err = fs.create(name, typ, setDate)
		}
	case ModeReadWrite:
		if !found {
			idx, err = fs.create(name, typ, setDate)
		}
	}
	if err != nil {
		return nil, err
	}

	return &Handle{fs: fs, idx: idx, mode: mode}, nil
}

// OpenIndex opens the file at a directory index. ModeNewFile empties it.
func (fs *Fs) OpenIndex(mode Mode, idx int) (*Handle, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if idx < 0 || idx >= fs.geo.MaxFiles() || !fs.inUse(idx) {
		return nil, checkpoint.Wrapf(ErrFileNotFound, "index %d", idx)
	}
	if mode == ModeNewFile {
		fs.truncate(idx)
	}
	return &Handle{fs: fs, idx: idx, mode: mode}, nil
}

// truncate empties file idx but keeps its first cluster.
func (fs *Fs) truncate(idx int) {
	first := fs.firstCluster(idx)
	if fs.isLink(first) {
		fs.freeChain(first)
		fs.terminate(first, 0)
	}
	fs.setLastSectorLen(idx, 0)
}

// Index of the file in the directory.
func (h *Handle) Index() int {
	return h.idx
}

// Mode the handle was opened with.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Name of the file as the host sees it.
func (h *Handle) Name() string {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	return h.fs.entryName(h.idx)
}

// Type of the file.
func (h *Handle) Type() uint16 {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	return h.fs.entryType(h.idx)
}

// Offset of the next Read or Write.
func (h *Handle) Offset() int {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	return h.offset
}

// Size of the file.
func (h *Handle) Size() (int, error) {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	if h.closed {
		return 0, checkpoint.From(os.ErrClosed)
	}
	return h.fs.fileSize(h.idx), nil
}

// Seek moves to pos, limited to the file, and returns the previous offset.
func (h *Handle) Seek(pos int) (int, error) {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	if h.closed {
		return h.offset, checkpoint.From(os.ErrClosed)
	}

	previous := h.offset
	if size := h.fs.fileSize(h.idx); pos > size {
		pos = size
	}
	if pos < 0 {
		pos = 0
	}
	h.offset = pos
	return previous, nil
}

// Read reads from the current offset. At the end of the file it returns io.EOF.
func (h *Handle) Read(p []byte) (int, error) {
	fs := h.fs
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if h.closed {
		return 0, checkpoint.From(os.ErrClosed)
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := 0
	for n < len(p) {
		loc, err := fs.resolveOffset(h.idx, h.offset, false)
		if err != nil {
			return n, err
		}
		if loc.pos >= loc.end {
			break
		}

		track, sector := fs.geo.clusterAddress(loc.cluster, loc.sector)
		node, err := fs.dl.GetSector(track, sector, true)
		if err != nil {
			return n, fs.dlError(err)
		}
		c := copy(p[n:], node.Buffer[loc.pos:loc.end])
		fs.dl.Release(node, false)

		n += c
		h.offset += c
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes at the current offset and grows the file as needed.
// If the disk runs full, the bytes written so far are counted and ErrDiskFull is returned.
func (h *Handle) Write(p []byte) (int, error) {
	fs := h.fs
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if h.closed {
		return 0, checkpoint.From(os.ErrClosed)
	}

	if len(p) > 0 {
		if err := fs.ensureCluster(h.idx); err != nil {
			return 0, err
		}
	}

	n := 0
	for n < len(p) {
		previousSize := fs.fileSize(h.idx)

		loc, err := fs.writeLocation(h.idx, h.offset)
		if err != nil {
			return n, err
		}
		// Another handle may have cut the file below the offset.
		h.offset = loc.offset

		track, sector := fs.geo.clusterAddress(loc.cluster, loc.sector)
		node, err := fs.dl.GetSector(track, sector, true)
		if err != nil {
			return n, fs.dlError(err)
		}
		c := copy(node.Buffer[loc.pos:loc.end], p[n:])
		fs.dl.Release(node, true)

		n += c
		h.offset += c

		if h.offset > previousSize {
			base, _ := fs.chainSize(fs.firstCluster(h.idx), 0)
			fs.setLastSectorLen(h.idx, h.offset-base)
		}
	}
	return n, nil
}

// writeLocation is the location of offset with the whole sector writable. If the sector
// is full it moves to the next one, using the next sector of the cluster or a new cluster.
func (fs *Fs) writeLocation(idx, offset int) (location, error) {
	loc, err := fs.resolveOffset(idx, offset, false)
	if err != nil {
		return loc, err
	}

	loc.end = fs.geo.FSSectorSize()
	if loc.pos < loc.end {
		return loc, nil
	}

	loc.pos = 0
	if loc.sector+1 < fs.geo.SectorsPerBlock() {
		loc.sector++
		fs.terminate(loc.cluster, loc.sector)
		fs.setLastSectorLen(idx, 0)
		return loc, nil
	}

	cluster, err := fs.allocate(idx, loc.cluster)
	if err != nil {
		return loc, err
	}
	loc.cluster, loc.sector = cluster, 0
	return loc, nil
}

// SetSize cuts or extends the file. Extended bytes read as zeros.
// The offset is moved back if it points behind the new end.
func (h *Handle) SetSize(size int) error {
	fs := h.fs
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if h.closed {
		return checkpoint.From(os.ErrClosed)
	}
	if size < 0 {
		size = 0
	}

	if err := fs.setSize(h.idx, size); err != nil {
		return err
	}
	if h.offset > size {
		h.offset = size
	}
	return nil
}

// Close writes the cached data sectors back. The FAT and the directory are not written,
// use Fs.FlushFileInfo or Fs.Flush once all writes are done.
func (h *Handle) Close() error {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.fs.dl.WriteBackDirty(); err != nil {
		return h.fs.dlError(err)
	}
	return nil
}

// Stat describes the file.
func (h *Handle) Stat() (Entry, error) {
	h.fs.lock.Lock()
	defer h.fs.lock.Unlock()
	if h.closed {
		return Entry{}, checkpoint.From(os.ErrClosed)
	}
	return h.fs.describe(h.idx)
}
