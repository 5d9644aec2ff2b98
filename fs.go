// Package tofs reads and writes single density floppy volumes.
//
// A volume keeps its label, a single sector FAT and a flat directory of 32 byte entries on
// the system track. Files are chains of clusters, two per track. All of the system track
// is held in memory while mounted, data sectors go through the write-back cache of a
// disklayer.DiskLayer.
//
// Directory and FAT changes stay in memory until FlushFileInfo or Flush is called.
package tofs

import (
	"errors"
	"sync"
	"time"

	"github.com/aligator/tofs/checkpoint"
	"github.com/aligator/tofs/codec"
	"github.com/aligator/tofs/disklayer"
	"github.com/sirupsen/logrus"
)

// These errors may occur while using the filesystem.
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileExists      = errors.New("file already exists")
	ErrRenameConflict  = errors.New("the new name is already used")
	ErrDirectoryFull   = errors.New("directory full")
	ErrDiskFull        = errors.New("disk full")
	ErrNotEnoughMemory = errors.New("not enough memory")
	ErrDiskLayer       = errors.New("disk layer error")
	ErrNotRecognized   = errors.New("not a recognized volume")
	ErrNoMoreEntries   = errors.New("no more entries")
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// IsFatal reports whether the volume is unusable after err, until the media changes.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotRecognized) || disklayer.IsFatal(err)
}

// Option configures an Fs.
type Option func(fs *Fs)

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(fs *Fs) {
		fs.log = log
	}
}

// WithClock sets the source of the dates written to new files and to the label.
func WithClock(now func() time.Time) Option {
	return func(fs *Fs) {
		fs.now = now
	}
}

// Fs is a mounted volume. It is safe for concurrent use, every operation holds one lock.
type Fs struct {
	lock sync.Mutex

	dl  *disklayer.DiskLayer
	geo Geometry
	log logrus.FieldLogger
	now func() time.Time

	// sys is the whole system track. label, fat and dir are views into it.
	sys   []byte
	label []byte
	fat   []byte
	dir   []byte

	// dirty flags one system track sector, indexed from 0.
	dirty []bool
}

// Allocate prepares an Fs for dl without touching the medium.
// Use Mount or Format afterwards.
func Allocate(dl *disklayer.DiskLayer, geo Geometry, opts ...Option) (*Fs, error) {
	if dl == nil {
		return nil, checkpoint.Wrap(disklayer.ErrOpenDevice, ErrDiskLayer)
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if dl.Layout() != geo.Layout() {
		return nil, checkpoint.Wrapf(ErrInvalidGeometry, "the disk layer uses %+v", dl.Layout())
	}

	fs := &Fs{
		dl:    dl,
		geo:   geo,
		log:   logrus.StandardLogger(),
		now:   time.Now,
		sys:   make([]byte, geo.SectorSize*geo.SectorsPerTrack),
		dirty: make([]bool, geo.SectorsPerTrack),
	}
	fs.label = fs.sys[(labelSector-1)*geo.SectorSize : labelSector*geo.SectorSize]
	fs.fat = fs.sys[(fatSector-1)*geo.SectorSize : fatSector*geo.SectorSize]
	fs.dir = fs.sys[(dirSector-1)*geo.SectorSize:]

	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

// New allocates an Fs and mounts the volume.
func New(dl *disklayer.DiskLayer, geo Geometry, opts ...Option) (*Fs, error) {
	fs, err := Allocate(dl, geo, opts...)
	if err != nil {
		return nil, err
	}
	if err := fs.Mount(); err != nil {
		return nil, err
	}
	return fs, nil
}

// NewSkipChecks works just like New but skips the FAT validation.
// That may allow you to open damaged volumes. Use with caution!
func NewSkipChecks(dl *disklayer.DiskLayer, geo Geometry, opts ...Option) (*Fs, error) {
	fs, err := Allocate(dl, geo, opts...)
	if err != nil {
		return nil, err
	}
	if err := fs.MountSkipChecks(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Mount reads the system track and checks that it holds a valid FAT.
func (fs *Fs) Mount() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.mount(true)
}

// MountSkipChecks reads the system track without validating it.
func (fs *Fs) MountSkipChecks() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.mount(false)
}

func (fs *Fs) mount(check bool) error {
	if fs.dl.Changed() {
		// Whatever is cached belongs to the previous disk.
		fs.log.Debug("media changed, dropping the sector cache")
		fs.dl.Clean()
	}

	ss := fs.geo.SectorSize
	for s := 1; s <= fs.geo.SectorsPerTrack; s++ {
		if err := fs.dl.ReadSector(SystemTrack, s, fs.sys[(s-1)*ss:s*ss]); err != nil {
			return fs.dlError(err)
		}
	}
	for i := range fs.dirty {
		fs.dirty[i] = false
	}

	if check {
		if err := fs.checkFAT(); err != nil {
			return err
		}
	}

	fs.log.WithFields(logrus.Fields{
		"volume":   codec.DiskToHostLabel(fs.label[labelName : labelName+codec.CommentSize]),
		"free":     fs.freeClusters(),
		"checked":  check,
		"extended": fs.geo.Extended,
	}).Debug("volume mounted")
	return nil
}

func (fs *Fs) checkFAT() error {
	if fs.fat[ClusterSys+1] != clusterReserved || fs.fat[ClusterSys+2] != clusterReserved {
		return checkpoint.Wrapf(ErrNotRecognized, "the system track is not reserved in the FAT")
	}

	last := fs.geo.MaxBlocks()
	if last > fs.geo.SectorSize-1 {
		last = fs.geo.SectorSize - 1
	}
	for i := 1; i <= last; i++ {
		v := fs.fat[i]
		if int(v) > clusterTerm+fs.geo.SectorsPerBlock() && v != clusterReserved && v != clusterFree {
			return checkpoint.Wrapf(ErrNotRecognized, "invalid FAT value 0x%02X for cluster %d", v, i-1)
		}
	}
	return nil
}

// Format writes an empty filesystem to the system track.
// The medium must have been low level formatted before, see disklayer.DiskLayer.LowLevelFormat.
func (fs *Fs) Format(volumeName string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for i := range fs.sys {
		fs.sys[i] = 0xFF
	}

	name := codec.HostToDiskLabel(volumeName)
	copy(fs.label[labelName:], name[:])
	if fs.geo.Extended {
		now := fs.now()
		fs.label[labelDay], fs.label[labelMonth], fs.label[labelYear] = encodeDate(now)
		fs.label[labelHour], fs.label[labelMin], fs.label[labelSec] = encodeTime(now)
	}

	for i := fs.geo.MaxBlocks() + 1; i < fs.geo.SectorSize; i++ {
		fs.fat[i] = 0
	}
	fs.fat[ClusterSys+1] = clusterReserved
	fs.fat[ClusterSys+2] = clusterReserved

	ss := fs.geo.SectorSize
	for s := 1; s <= fs.geo.SectorsPerTrack; s++ {
		if err := fs.dl.WriteSector(SystemTrack, s, fs.sys[(s-1)*ss:s*ss]); err != nil {
			return fs.dlError(err)
		}
	}
	for i := range fs.dirty {
		fs.dirty[i] = false
	}

	// Cached data sectors belong to the old filesystem.
	if err := fs.dl.Finalize(true); err != nil {
		return fs.dlError(err)
	}

	fs.log.WithField("volume", volumeName).Info("volume formatted")
	return nil
}

// FlushFileInfo writes the FAT and every changed directory sector.
// Data sectors still in the cache are not written, use Flush for that.
func (fs *Fs) FlushFileInfo() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.flushFileInfo()
}

func (fs *Fs) flushFileInfo() error {
	ss := fs.geo.SectorSize
	written := 0
	// FAT first, then the directory.
	for i := fatSector - 1; i < len(fs.dirty); i++ {
		if !fs.dirty[i] {
			continue
		}
		if err := fs.dl.WriteSector(SystemTrack, i+1, fs.sys[i*ss:(i+1)*ss]); err != nil {
			return fs.dlError(err)
		}
		fs.dirty[i] = false
		written++
	}

	if written > 0 {
		fs.log.WithField("sectors", written).Debug("file info written")
	}
	return nil
}

// Flush writes every cached data sector, then the FAT and the directory, and lets the
// device settle. Data goes first so that the directory never points to unwritten sectors.
func (fs *Fs) Flush() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.flush()
}

func (fs *Fs) flush() error {
	if err := fs.dl.WriteBackDirty(); err != nil {
		return fs.dlError(err)
	}
	if err := fs.flushFileInfo(); err != nil {
		return err
	}
	if err := fs.dl.Finalize(false); err != nil {
		return fs.dlError(err)
	}
	return nil
}

// Close flushes the volume and closes the disk layer with its device.
func (fs *Fs) Close() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	err := fs.flush()
	if cerr := fs.dl.Close(); err == nil && cerr != nil {
		err = fs.dlError(cerr)
	}
	return err
}

// Geometry of the volume.
func (fs *Fs) Geometry() Geometry {
	return fs.geo
}

// DiskLayer the volume is mounted on.
func (fs *Fs) DiskLayer() *disklayer.DiskLayer {
	return fs.dl
}

// VolumeName returns the label of the volume.
func (fs *Fs) VolumeName() string {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return codec.DiskToHostLabel(fs.label[labelName : labelName+codec.CommentSize])
}

// SetVolumeName changes the label. The label sector is written immediately.
func (fs *Fs) SetVolumeName(name string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	raw := codec.HostToDiskLabel(name)
	copy(fs.label[labelName:], raw[:])
	if err := fs.dl.WriteSector(SystemTrack, labelSector, fs.label); err != nil {
		return fs.dlError(err)
	}
	return nil
}

// VolumeDate returns the creation date stored in the label.
// Only extended volumes have one, ok is false otherwise or if the date is invalid.
func (fs *Fs) VolumeDate() (date time.Time, ok bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if !fs.geo.Extended {
		return time.Time{}, false
	}
	rec, err := unpackLabel(fs.label)
	if err != nil {
		return time.Time{}, false
	}
	if rec.Hour > 23 || rec.Min > 59 || rec.Sec > 59 {
		return time.Time{}, false
	}
	date = combine(ParseDate(rec.Day, rec.Month, rec.Year), ParseTime(rec.Hour, rec.Min, rec.Sec))
	return date, !date.IsZero()
}

// FreeSpace returns the number of free clusters.
func (fs *Fs) FreeSpace() int {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.freeClusters()
}

// UsedSpace returns the number of clusters which are not free, the system track included.
// FreeSpace and UsedSpace always add up to Geometry.MaxBlocks.
func (fs *Fs) UsedSpace() int {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.geo.MaxBlocks() - fs.freeClusters()
}

// FreeBytes returns the payload the free clusters can hold.
func (fs *Fs) FreeBytes() int64 {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return int64(fs.freeClusters()) * int64(fs.geo.BlockSize())
}

func (fs *Fs) freeClusters() int {
	count := 0
	for c := 0; c < fs.geo.MaxBlocks(); c++ {
		if fs.fat[c+1] == clusterFree {
			count++
		}
	}
	return count
}

// dlError decorates an error of the disk layer.
func (fs *Fs) dlError(err error) error {
	if errors.Is(err, disklayer.ErrNoCapacity) || errors.Is(err, disklayer.ErrNotEnoughMemory) {
		return checkpoint.Wrap(err, ErrNotEnoughMemory)
	}
	return checkpoint.Wrap(err, ErrDiskLayer)
}
