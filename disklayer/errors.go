package disklayer

import (
	"errors"

	"github.com/aligator/tofs/checkpoint"
)

// Device errors. Block devices should wrap their failures with one of these so the
// disk layer and its callers can classify them.
var (
	ErrNotEnoughMemory = errors.New("not enough memory")
	ErrOpenFile        = errors.New("could not open the disk image")
	ErrReadFile        = errors.New("could not read the disk image")
	ErrWriteFile       = errors.New("could not write the disk image")
	ErrOpenDevice      = errors.New("could not open the device")
	ErrDeviceIO        = errors.New("device I/O error")
	ErrSectorGeometry  = errors.New("bad track structure")
	ErrSectorChecksum  = errors.New("bad sector CRC")
	ErrWriteProtected  = errors.New("disk write protected")
	ErrNoDisk          = errors.New("no disk")
	ErrUnitAccess      = errors.New("device unit not accessible")
	ErrUnknownType     = errors.New("unknown disk type")

	// ErrNoCapacity is returned when the cache cannot make room even after writing
	// back every dirty sector.
	ErrNoCapacity = errors.New("no cache capacity left")
)

var (
	fatalErrors = []error{
		ErrNotEnoughMemory,
		ErrOpenFile,
		ErrOpenDevice,
		ErrWriteProtected,
		ErrNoDisk,
		ErrUnitAccess,
		ErrUnknownType,
	}

	classifiedErrors = append([]error{
		ErrReadFile,
		ErrWriteFile,
		ErrDeviceIO,
		ErrSectorGeometry,
		ErrSectorChecksum,
		ErrNoCapacity,
	}, fatalErrors...)
)

// IsFatal reports whether err leaves the volume unusable until the media changes.
// Transient errors like a bad checksum or a failed read are not fatal and the whole
// operation may be retried.
func IsFatal(err error) bool {
	for _, fatal := range fatalErrors {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}

// classify makes sure err matches one of the device errors.
// Unknown errors become ErrDeviceIO.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range classifiedErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return checkpoint.Wrap(err, ErrDeviceIO)
}
