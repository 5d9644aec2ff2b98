package disklayer

// BlockDevice reads and writes whole sectors of a track based medium.
// Tracks are numbered from 0, sectors from 1.
// Generated mock using mockgen:
//  mockgen -destination=mockdevice/device_mock.go -package mockdevice github.com/aligator/tofs/disklayer BlockDevice
type BlockDevice interface {
	ReadSector(track, sector int, dst []byte) error
	WriteSector(track, sector int, src []byte) error
	// FormatTrack rewrites a whole track with fill, which holds SectorsPerTrack sectors.
	FormatTrack(track, interleave int, fill []byte) error
	MediaPresent() bool
	WriteProtected() bool
	// Finalize flushes any staging buffers of the device and stops pending activity.
	Finalize() error
	Close() error
}

// ChangeNotifier is implemented by devices which can report a media change.
type ChangeNotifier interface {
	OnChange(func())
}

// Layout is the physical shape of a medium.
type Layout struct {
	SectorSize      int
	SectorsPerTrack int
	Tracks          int
}

// TrackSize in bytes.
func (l Layout) TrackSize() int {
	return l.SectorSize * l.SectorsPerTrack
}

// Size of the whole medium in bytes.
func (l Layout) Size() int64 {
	return int64(l.TrackSize()) * int64(l.Tracks)
}

// Offset of a sector in a flat image. It returns false if the address does not exist.
func (l Layout) Offset(track, sector int) (int64, bool) {
	if track < 0 || track >= l.Tracks || sector < 1 || sector > l.SectorsPerTrack {
		return 0, false
	}
	return int64(track)*int64(l.TrackSize()) + int64(sector-1)*int64(l.SectorSize), true
}
