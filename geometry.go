package tofs

import (
	"fmt"

	"github.com/aligator/tofs/checkpoint"
	"github.com/aligator/tofs/disklayer"
)

const (
	// BlocksPerTrack is fixed, every track holds exactly two clusters.
	BlocksPerTrack = 2
	// SystemTrack holds the label, the FAT and the directory.
	SystemTrack = 20
	// ClusterSys is the first cluster of the system track.
	ClusterSys = SystemTrack * BlocksPerTrack
	// FileInfoSize is the size of one directory entry.
	FileInfoSize = 32

	labelSector = 1
	fatSector   = 2
	dirSector   = 3
)

// Geometry describes a medium. The zero value is not usable, start from DefaultGeometry.
type Geometry struct {
	SectorSize      int
	SectorsPerTrack int
	Tracks          int
	// Extended volumes store a creation date in the label and a time of day in every
	// directory entry.
	Extended bool
}

// DefaultGeometry is an 80 track double sided floppy with 16 sectors of 256 bytes.
func DefaultGeometry() Geometry {
	return Geometry{
		SectorSize:      256,
		SectorsPerTrack: 16,
		Tracks:          80,
	}
}

// FSSectorSize is the usable payload of a sector. The last byte is never used for data.
func (g Geometry) FSSectorSize() int { return g.SectorSize - 1 }

// SectorsPerBlock is the number of sectors in a cluster.
func (g Geometry) SectorsPerBlock() int { return g.SectorsPerTrack / BlocksPerTrack }

// FilesPerSector is the number of directory entries in one sector.
func (g Geometry) FilesPerSector() int { return g.SectorSize / FileInfoSize }

// MaxFiles is the number of directory entries of the volume.
func (g Geometry) MaxFiles() int { return g.FilesPerSector() * (g.SectorsPerTrack - 2) }

// MaxBlocks is the number of clusters of the volume.
func (g Geometry) MaxBlocks() int { return g.Tracks * BlocksPerTrack }

// BlockSize is the payload of a full cluster.
func (g Geometry) BlockSize() int { return g.SectorsPerBlock() * g.FSSectorSize() }

// Layout is the physical layout the disk layer needs.
func (g Geometry) Layout() disklayer.Layout {
	return disklayer.Layout{
		SectorSize:      g.SectorSize,
		SectorsPerTrack: g.SectorsPerTrack,
		Tracks:          g.Tracks,
	}
}

// Validate rejects geometries the on-disk structures cannot describe.
func (g Geometry) Validate() error {
	switch {
	case g.SectorSize < 2*FileInfoSize:
		return checkpoint.Wrap(fmt.Errorf("sector size %d is smaller than %d", g.SectorSize, 2*FileInfoSize), ErrInvalidGeometry)
	case g.SectorsPerTrack < 4 || g.SectorsPerTrack%BlocksPerTrack != 0:
		return checkpoint.Wrap(fmt.Errorf("%d sectors per track, need an even count of at least 4", g.SectorsPerTrack), ErrInvalidGeometry)
	case g.Tracks <= SystemTrack:
		return checkpoint.Wrap(fmt.Errorf("%d tracks do not reach the system track %d", g.Tracks, SystemTrack), ErrInvalidGeometry)
	case g.MaxBlocks()+1 > g.SectorSize:
		// The FAT is a single sector, indexed from 1.
		return checkpoint.Wrap(fmt.Errorf("%d clusters do not fit a FAT of %d bytes", g.MaxBlocks(), g.SectorSize), ErrInvalidGeometry)
	case g.MaxBlocks() > clusterTerm:
		return checkpoint.Wrap(fmt.Errorf("%d clusters collide with the terminal marker", g.MaxBlocks()), ErrInvalidGeometry)
	case clusterTerm+g.SectorsPerBlock() >= clusterReserved:
		return checkpoint.Wrap(fmt.Errorf("%d sectors per cluster collide with the reserved marker", g.SectorsPerBlock()), ErrInvalidGeometry)
	}
	return nil
}

// clusterAddress maps a cluster and a sector index inside of it to a physical address.
// Sectors are 1-based.
func (g Geometry) clusterAddress(cluster, idx int) (track, sector int) {
	return cluster >> 1, (cluster&1)*g.SectorsPerBlock() + idx + 1
}
