// Package disklayer puts a bounded write-back sector cache in front of a block device.
//
// Sectors are handed out as cache nodes. Callers modify the node buffer and release it
// dirty; nothing reaches the device before WriteBackDirty, Finalize or cache pressure
// forces it. When the cache is full of dirty sectors every one of them is written back
// in physical order before a new sector is admitted.
package disklayer

import (
	"bytes"
	"sync/atomic"

	"github.com/aligator/tofs/checkpoint"
	"github.com/aligator/tofs/sectorcache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultBuffers is the cache capacity used when Options.BufferMax is 0.
const DefaultBuffers = 16

// FormatFill is the byte a freshly formatted sector contains.
const FormatFill = 0xE5

// Options for Open.
type Options struct {
	Layout Layout
	// BufferMax is the number of cached sectors. 0 selects DefaultBuffers.
	BufferMax int
	Log       logrus.FieldLogger
}

// DiskLayer owns a sector cache bound to one block device.
type DiskLayer struct {
	dev       BlockDevice
	layout    Layout
	cache     *sectorcache.Cache
	bufferMax int
	changed   atomic.Bool
	log       logrus.FieldLogger
}

// Open binds a cache to dev.
func Open(dev BlockDevice, opts Options) (*DiskLayer, error) {
	if dev == nil {
		return nil, checkpoint.From(ErrOpenDevice)
	}
	if opts.Layout.SectorSize <= 0 {
		return nil, checkpoint.Wrapf(ErrUnknownType, "invalid sector size %d", opts.Layout.SectorSize)
	}

	d := &DiskLayer{
		dev:       dev,
		layout:    opts.Layout,
		cache:     sectorcache.New(opts.Layout.SectorSize),
		bufferMax: DefaultBuffers,
		log:       opts.Log,
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if opts.BufferMax != 0 {
		d.SetBufferMax(opts.BufferMax, 0)
	}

	if notifier, ok := dev.(ChangeNotifier); ok {
		notifier.OnChange(func() {
			d.log.Debug("media change reported")
			d.changed.Store(true)
		})
	}

	return d, nil
}

// OpenImage opens the disk image at path on afs and binds a cache to it.
func OpenImage(afs afero.Fs, path string, readOnly bool, opts Options) (*DiskLayer, error) {
	dev, err := OpenImageDevice(afs, path, opts.Layout, readOnly)
	if err != nil {
		return nil, err
	}

	d, err := Open(dev, opts)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return d, nil
}

// Layout of the medium behind the disk layer.
func (d *DiskLayer) Layout() Layout {
	return d.layout
}

// BufferMax is the current cache capacity.
func (d *DiskLayer) BufferMax() int {
	return d.bufferMax
}

// Cached returns the number of resident sectors.
func (d *DiskLayer) Cached() int {
	return d.cache.Count()
}

// SetBufferMax sets the cache capacity to max if max >= 0, then adds delta.
// The capacity never drops below 1. Clean sectors above the new capacity are dropped,
// dirty ones stay until ObtainSector has to write them back.
func (d *DiskLayer) SetBufferMax(max, delta int) int {
	if max >= 0 {
		d.bufferMax = max
	}
	d.bufferMax += delta
	if d.bufferMax < 1 {
		d.bufferMax = 1
	}

	d.shrink()
	return d.bufferMax
}

// shrink drops the oldest clean sectors until the cache fits its capacity.
func (d *DiskLayer) shrink() {
	for d.cache.Count() > d.bufferMax && d.cache.Evict() {
	}
}

// ObtainSector returns the cache node for a sector without reading it.
// A node with sectorcache.StatusNew holds zeros, not the device content.
func (d *DiskLayer) ObtainSector(track, sector int) (*sectorcache.Node, error) {
	if node := d.cache.Find(track, sector); node != nil {
		return node, nil
	}

	d.shrink()
	if d.cache.Count() < d.bufferMax {
		return d.cache.Obtain(track, sector, true), nil
	}
	if node := d.cache.ObtainOlder(track, sector); node != nil {
		return node, nil
	}

	d.log.WithFields(logrus.Fields{"track": track, "sector": sector, "cached": d.cache.Count()}).
		Debug("cache full of dirty sectors, writing back")
	if err := d.WriteBackDirty(); err != nil {
		return nil, err
	}

	// The capacity may have been lowered while the sectors were dirty.
	d.shrink()
	if node := d.cache.ObtainOlder(track, sector); node != nil {
		return node, nil
	}
	return nil, checkpoint.From(ErrNoCapacity)
}

// GetSector returns the cache node for a sector. With preload a node that was never
// filled is read from the device first. If that read fails the node is dropped again.
func (d *DiskLayer) GetSector(track, sector int, preload bool) (*sectorcache.Node, error) {
	node, err := d.ObtainSector(track, sector)
	if err != nil {
		return nil, err
	}

	if preload && node.Status == sectorcache.StatusNew {
		if err := d.ReadSector(track, sector, node.Buffer); err != nil {
			d.cache.Remove(node)
			return nil, err
		}
		d.cache.MarkClean(node)
	}
	return node, nil
}

// Release hands a node obtained by GetSector or ObtainSector back.
func (d *DiskLayer) Release(node *sectorcache.Node, dirty bool) {
	d.cache.Release(node, dirty)
}

// Invalidate writes the sector back if it is dirty and forgets it.
func (d *DiskLayer) Invalidate(track, sector int) error {
	node := d.cache.Find(track, sector)
	if node == nil {
		return nil
	}
	if node.Dirty() {
		if err := d.WriteSector(track, sector, node.Buffer); err != nil {
			return err
		}
	}
	d.cache.Remove(node)
	return nil
}

// ReadSector reads directly from the device, bypassing the cache.
func (d *DiskLayer) ReadSector(track, sector int, dst []byte) error {
	if err := d.dev.ReadSector(track, sector, dst); err != nil {
		return d.deviceError(err, "read", track, sector)
	}
	return nil
}

// WriteSector writes directly to the device, bypassing the cache.
func (d *DiskLayer) WriteSector(track, sector int, src []byte) error {
	if err := d.dev.WriteSector(track, sector, src); err != nil {
		return d.deviceError(err, "write", track, sector)
	}
	return nil
}

// FormatTrack passes a low level track format to the device.
func (d *DiskLayer) FormatTrack(track, interleave int, fill []byte) error {
	if err := d.dev.FormatTrack(track, interleave, fill); err != nil {
		return d.deviceError(err, "format", track, 0)
	}
	return nil
}

// LowLevelFormat formats every track of the medium with FormatFill.
// The cache is dropped as its content is meaningless afterwards.
func (d *DiskLayer) LowLevelFormat(interleave int) error {
	fill := bytes.Repeat([]byte{FormatFill}, d.layout.TrackSize())
	for track := 0; track < d.layout.Tracks; track++ {
		if err := d.FormatTrack(track, interleave, fill); err != nil {
			return err
		}
	}
	d.cache.Flush()
	return nil
}

// WriteBackDirty writes every dirty sector in ascending (track, sector) order.
// It stops at the first failure, the remaining sectors stay dirty.
func (d *DiskLayer) WriteBackDirty() error {
	written := 0
	for node := d.cache.MinDirty(); node != nil; node = d.cache.MinDirty() {
		if err := d.WriteSector(node.Track, node.Sector, node.Buffer); err != nil {
			return err
		}
		d.cache.MarkClean(node)
		written++
	}

	if written > 0 {
		d.log.WithField("sectors", written).Debug("dirty sectors written back")
	}
	return nil
}

// Finalize writes back every dirty sector, drops the whole cache if freeCache is set and
// lets the device settle. After a failed write back the cache is kept.
func (d *DiskLayer) Finalize(freeCache bool) error {
	if err := d.WriteBackDirty(); err != nil {
		return err
	}
	if freeCache {
		d.cache.Flush()
	}

	if err := d.dev.Finalize(); err != nil {
		return d.deviceError(err, "finalize", 0, 0)
	}
	return nil
}

// Changed reports whether the device signaled a media change since the last Clean.
func (d *DiskLayer) Changed() bool {
	return d.changed.Load()
}

// Clean drops the whole cache without writing anything back. It is meant for media
// changes, where the cached sectors belong to another disk.
func (d *DiskLayer) Clean() {
	d.cache.Flush()
	d.changed.Store(false)
}

// MediaPresent asks the device whether a medium is inserted.
func (d *DiskLayer) MediaPresent() bool {
	return d.dev.MediaPresent()
}

// WriteProtected asks the device whether the medium is write protected.
func (d *DiskLayer) WriteProtected() bool {
	return d.dev.WriteProtected()
}

// Close writes everything back and closes the device.
func (d *DiskLayer) Close() error {
	err := d.Finalize(true)
	if cerr := d.dev.Close(); err == nil && cerr != nil {
		err = d.deviceError(cerr, "close", 0, 0)
	}
	return err
}

func (d *DiskLayer) deviceError(err error, op string, track, sector int) error {
	err = classify(err)
	d.log.WithFields(logrus.Fields{
		"op":     op,
		"track":  track,
		"sector": sector,
		"fatal":  IsFatal(err),
	}).Warn(err)
	return checkpoint.From(err)
}
