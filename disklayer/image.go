package disklayer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/aligator/tofs/checkpoint"
	"github.com/spf13/afero"
)

// ImageDevice is a BlockDevice backed by a flat disk image: every track of the medium
// stored one after the other, sectors in ascending order.
type ImageDevice struct {
	layout   Layout
	file     afero.File
	readOnly bool
	unlock   func() error
	onChange func()
}

// NewImageDevice uses an already opened image file.
func NewImageDevice(file afero.File, layout Layout, readOnly bool) *ImageDevice {
	return &ImageDevice{
		layout:   layout,
		file:     file,
		readOnly: readOnly,
	}
}

// OpenImageDevice opens the image at path. Writable images are locked exclusively
// where the platform supports it, a locked image fails with ErrUnitAccess.
func OpenImageDevice(afs afero.Fs, path string, layout Layout, readOnly bool) (*ImageDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	file, err := afs.OpenFile(path, flag, 0)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpenFile)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, checkpoint.Wrap(err, ErrOpenFile)
	}
	if stat.Size() < layout.Size() {
		_ = file.Close()
		return nil, checkpoint.Wrap(
			fmt.Errorf("image %s has %d bytes, want %d", path, stat.Size(), layout.Size()),
			ErrUnknownType,
		)
	}

	unlock, err := lockImage(file, readOnly)
	if err != nil {
		_ = file.Close()
		return nil, checkpoint.Wrap(err, ErrUnitAccess)
	}

	dev := NewImageDevice(file, layout, readOnly)
	dev.unlock = unlock
	return dev, nil
}

// CreateImage writes a blank image at path, every byte set to FormatFill.
func CreateImage(afs afero.Fs, path string, layout Layout) error {
	data := bytes.Repeat([]byte{FormatFill}, int(layout.Size()))
	if err := afero.WriteFile(afs, path, data, 0644); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	return nil
}

func (d *ImageDevice) offset(track, sector int) (int64, error) {
	if d.file == nil {
		return 0, checkpoint.From(ErrNoDisk)
	}
	offset, ok := d.layout.Offset(track, sector)
	if !ok {
		return 0, checkpoint.Wrapf(ErrSectorGeometry, "track %d sector %d", track, sector)
	}
	return offset, nil
}

func (d *ImageDevice) ReadSector(track, sector int, dst []byte) error {
	offset, err := d.offset(track, sector)
	if err != nil {
		return err
	}
	if len(dst) < d.layout.SectorSize {
		return checkpoint.Wrapf(ErrReadFile, "buffer of %d bytes too small", len(dst))
	}

	n, err := d.file.ReadAt(dst[:d.layout.SectorSize], offset)
	if n == d.layout.SectorSize {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("short read of %d bytes", n)
	}
	return checkpoint.Wrap(err, ErrReadFile)
}

func (d *ImageDevice) WriteSector(track, sector int, src []byte) error {
	offset, err := d.offset(track, sector)
	if err != nil {
		return err
	}
	if d.readOnly {
		return checkpoint.From(ErrWriteProtected)
	}
	if len(src) < d.layout.SectorSize {
		return checkpoint.Wrapf(ErrWriteFile, "buffer of %d bytes too small", len(src))
	}

	if _, err := d.file.WriteAt(src[:d.layout.SectorSize], offset); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	return nil
}

// FormatTrack writes fill over the whole track. Images have no physical sector order,
// so interleave is ignored.
func (d *ImageDevice) FormatTrack(track, interleave int, fill []byte) error {
	offset, err := d.offset(track, 1)
	if err != nil {
		return err
	}
	if d.readOnly {
		return checkpoint.From(ErrWriteProtected)
	}
	if len(fill) != d.layout.TrackSize() {
		return checkpoint.Wrapf(ErrSectorGeometry, "track fill of %d bytes", len(fill))
	}

	if _, err := d.file.WriteAt(fill, offset); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	return nil
}

func (d *ImageDevice) MediaPresent() bool {
	return d.file != nil
}

func (d *ImageDevice) WriteProtected() bool {
	return d.readOnly
}

func (d *ImageDevice) Finalize() error {
	if d.file == nil || d.readOnly {
		return nil
	}
	if err := d.file.Sync(); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	return nil
}

func (d *ImageDevice) OnChange(fn func()) {
	d.onChange = fn
}

// Eject closes the image. Every access fails with ErrNoDisk until Insert.
func (d *ImageDevice) Eject() error {
	err := d.release()
	d.changed()
	return err
}

// Insert swaps in another image file.
func (d *ImageDevice) Insert(file afero.File, readOnly bool) error {
	err := d.release()
	d.file = file
	d.readOnly = readOnly
	d.changed()
	return err
}

func (d *ImageDevice) Close() error {
	return d.release()
}

func (d *ImageDevice) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}

func (d *ImageDevice) release() error {
	if d.file == nil {
		return nil
	}

	var err error
	if d.unlock != nil {
		err = d.unlock()
		d.unlock = nil
	}
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	d.file = nil
	return checkpoint.From(err)
}
