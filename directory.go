package tofs

import (
	"strings"
	"time"

	"github.com/aligator/tofs/checkpoint"
	"github.com/aligator/tofs/codec"
)

func (fs *Fs) entry(idx int) []byte {
	return fs.dir[idx*FileInfoSize : (idx+1)*FileInfoSize]
}

// markEntry flags the directory sector of entry idx for the next FlushFileInfo.
func (fs *Fs) markEntry(idx int) {
	fs.dirty[dirSector-1+idx/fs.geo.FilesPerSector()] = true
}

func (fs *Fs) inUse(idx int) bool {
	status := fs.entry(idx)[entryName]
	return status != entryNone && status != entryErased
}

func (fs *Fs) firstCluster(idx int) int {
	return int(fs.entry(idx)[entryFirstCluster])
}

func (fs *Fs) lastSectorLen(idx int) int {
	return int(byteOrder.Uint16(fs.entry(idx)[entryLastSectorLen:]))
}

func (fs *Fs) setLastSectorLen(idx, n int) {
	byteOrder.PutUint16(fs.entry(idx)[entryLastSectorLen:], uint16(n))
	fs.markEntry(idx)
}

func (fs *Fs) entryType(idx int) uint16 {
	return byteOrder.Uint16(fs.entry(idx)[entryType:])
}

func (fs *Fs) entryName(idx int) string {
	return codec.DiskToHostName(fs.entry(idx)[entryName:entryComment], true)
}

// FindFile returns the directory index of a file.
//
// The name is reduced to what the disk can store first, so "LongFileName.text" finds
// "LongFile.tex". An exact match wins. Without caseSensitive the first match ignoring
// case is taken if there is no exact one. If typ is given, the type has to match too.
func (fs *Fs) FindFile(name string, typ *uint16, caseSensitive bool) (int, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.findFile(name, typ, caseSensitive)
}

func (fs *Fs) findFile(name string, typ *uint16, caseSensitive bool) (int, error) {
	target := codec.Canonical(name)

	folded := -1
	for idx := 0; idx < fs.geo.MaxFiles(); idx++ {
		if !fs.inUse(idx) {
			continue
		}
		if typ != nil && fs.entryType(idx) != *typ {
			continue
		}

		current := fs.entryName(idx)
		if current == target {
			return idx, nil
		}
		if folded < 0 && equalFoldASCII(current, target) {
			folded = idx
		}
	}

	if folded >= 0 && !caseSensitive {
		return folded, nil
	}
	return -1, checkpoint.Wrapf(ErrFileNotFound, "%q", name)
}

// equalFoldASCII compares a and b ignoring the case of ASCII letters only, so "é" and
// "É" stay different.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// create adds an entry with a first, empty cluster.
// A never used entry is preferred over an erased one.
func (fs *Fs) create(name string, typ *uint16, setDate bool) (int, error) {
	free, erased := -1, -1
	for idx := 0; idx < fs.geo.MaxFiles(); idx++ {
		switch fs.entry(idx)[entryName] {
		case entryNone:
			if free < 0 {
				free = idx
			}
		case entryErased:
			if erased < 0 {
				erased = idx
			}
		}
	}

	idx := free
	if idx < 0 {
		idx = erased
	}
	if idx < 0 {
		return -1, checkpoint.From(ErrDirectoryFull)
	}

	cluster, err := fs.allocate(idx, -1)
	if err != nil {
		return -1, err
	}

	raw := codec.HostToDiskName(name)
	rec := EntryRecord{
		FirstCluster: uint8(cluster),
		Type:         codec.TypeFromName(name),
	}
	copy(rec.Name[:], raw[:codec.NameSize])
	copy(rec.Suffix[:], raw[codec.NameSize:])
	rec.Comment, _ = codec.HostToDiskComment("")
	if typ != nil {
		rec.Type = *typ
	}
	if setDate {
		now := fs.now()
		rec.Day, rec.Month, rec.Year = encodeDate(now)
		if fs.geo.Extended {
			rec.Hour, rec.Min, rec.Sec = encodeTime(now)
		}
	}

	if err := packEntry(rec, fs.entry(idx)); err != nil {
		return -1, checkpoint.From(err)
	}
	fs.markEntry(idx)

	fs.log.WithField("name", name).WithField("index", idx).Debug("file created")
	return idx, nil
}

// Rename changes the name of a file. It fails with ErrRenameConflict if newName already
// denotes a file.
func (fs *Fs) Rename(oldName string, typ *uint16, caseSensitive bool, newName string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(oldName, typ, caseSensitive)
	if err != nil {
		return err
	}
	if _, err := fs.findFile(newName, typ, caseSensitive); err == nil {
		return checkpoint.Wrapf(ErrRenameConflict, "%q", newName)
	}

	raw := codec.HostToDiskName(newName)
	copy(fs.entry(idx)[entryName:], raw[:])
	fs.markEntry(idx)
	return nil
}

// Delete erases a file and frees its clusters.
func (fs *Fs) Delete(name string, typ *uint16, caseSensitive bool) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(name, typ, caseSensitive)
	if err != nil {
		return err
	}
	fs.deleteIndex(idx)
	return nil
}

// DeleteIndex erases the file at a directory index.
func (fs *Fs) DeleteIndex(idx int) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if idx < 0 || idx >= fs.geo.MaxFiles() || !fs.inUse(idx) {
		return checkpoint.Wrapf(ErrFileNotFound, "index %d", idx)
	}
	fs.deleteIndex(idx)
	return nil
}

func (fs *Fs) deleteIndex(idx int) {
	fs.entry(idx)[entryName] = entryErased
	fs.freeChain(fs.firstCluster(idx))
	fs.markEntry(idx)
	fs.log.WithField("index", idx).Debug("file deleted")
}

// SetComment replaces the comment of a file.
// A "(TTTT)" or "(TTTTEEEE)" prefix sets the type and the extra data instead of being
// stored.
func (fs *Fs) SetComment(name string, typ *uint16, caseSensitive bool, comment string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(name, typ, caseSensitive)
	if err != nil {
		return err
	}

	raw, meta := codec.HostToDiskComment(comment)
	entry := fs.entry(idx)
	copy(entry[entryComment:], raw[:])
	if meta.HasType {
		byteOrder.PutUint16(entry[entryType:], meta.Type)
	}
	if meta.HasExtra {
		byteOrder.PutUint16(entry[entryExtra:], meta.Extra)
	}
	fs.markEntry(idx)
	return nil
}

// SetDate sets the date of a file. The time of day is only stored on extended volumes.
func (fs *Fs) SetDate(name string, typ *uint16, caseSensitive bool, date time.Time) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(name, typ, caseSensitive)
	if err != nil {
		return err
	}

	entry := fs.entry(idx)
	entry[entryDay], entry[entryMonth], entry[entryYear] = encodeDate(date)
	if fs.geo.Extended {
		entry[entryHour], entry[entryMin], entry[entrySec] = encodeTime(date)
	}
	fs.markEntry(idx)
	return nil
}

// NameAt returns the name and the type of the file at a directory index.
func (fs *Fs) NameAt(idx int) (string, uint16, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if idx < 0 || idx >= fs.geo.MaxFiles() || !fs.inUse(idx) {
		return "", 0, checkpoint.Wrapf(ErrFileNotFound, "index %d", idx)
	}
	return fs.entryName(idx), fs.entryType(idx), nil
}

// Entry describes one file of the directory.
type Entry struct {
	Index   int
	Name    string
	Comment string
	Type    uint16
	// Extra is only stored for files with the CHG suffix.
	Extra    uint16
	HasExtra bool
	Size     int64
	// Blocks is the number of clusters of the file.
	Blocks int
	// ModTime is zero if the entry has no valid date. The time of day is only set if
	// TimeValid.
	ModTime   time.Time
	DateValid bool
	TimeValid bool
}

// Cursor walks the directory, see Fs.Examine.
type Cursor struct {
	fs  *Fs
	idx int
}

// Examine starts a walk over every file of the directory.
func (fs *Fs) Examine() *Cursor {
	return &Cursor{fs: fs, idx: -1}
}

// Next returns the next file. At the end of the directory it returns ErrNoMoreEntries.
func (c *Cursor) Next() (Entry, error) {
	fs := c.fs
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for c.idx < fs.geo.MaxFiles()-1 {
		c.idx++
		if !fs.inUse(c.idx) {
			continue
		}
		return fs.describe(c.idx)
	}
	return Entry{}, ErrNoMoreEntries
}

// describe decodes entry idx.
func (fs *Fs) describe(idx int) (Entry, error) {
	rec, err := unpackEntry(fs.entry(idx))
	if err != nil {
		return Entry{}, checkpoint.From(err)
	}

	size, blocks := fs.chainSize(int(rec.FirstCluster), int(rec.LastSectorLen))
	e := Entry{
		Index:   idx,
		Name:    fs.entryName(idx),
		Comment: codec.DiskToHostComment(rec.Comment[:]),
		Type:    rec.Type,
		Size:    int64(size),
		Blocks:  blocks,
	}

	if strings.TrimRight(string(rec.Suffix[:]), " ") == "CHG" {
		e.Extra, e.HasExtra = rec.Extra, true
	}

	date := ParseDate(rec.Day, rec.Month, rec.Year)
	e.DateValid = !date.IsZero()
	if fs.geo.Extended {
		e.TimeValid = e.DateValid && (rec.Hour != 0 || rec.Min != 0 || rec.Sec != 0)
	}
	if e.TimeValid {
		e.ModTime = combine(date, ParseTime(rec.Hour, rec.Min, rec.Sec))
	} else {
		e.ModTime = date
	}
	return e, nil
}

// Stat describes a file.
func (fs *Fs) Stat(name string, typ *uint16, caseSensitive bool) (Entry, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	idx, err := fs.findFile(name, typ, caseSensitive)
	if err != nil {
		return Entry{}, err
	}
	return fs.describe(idx)
}
