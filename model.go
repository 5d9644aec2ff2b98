// File model contains the structs which match the direct structures of the filesystem.

package tofs

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"
)

// FAT values. Values up to clusterTerm are links to the next cluster, values above
// terminate a chain and count the used sectors of the last cluster.
const (
	clusterFree     = 0xFF
	clusterReserved = 0xFE
	clusterTerm     = 0xC0
)

// Directory entry status, stored in the first name byte.
const (
	entryNone   = 0xFF
	entryErased = 0x00
)

// Offsets inside of a directory entry.
const (
	entryName          = 0
	entrySuffix        = 8
	entryType          = 11
	entryFirstCluster  = 13
	entryLastSectorLen = 14
	entryComment       = 16
	entryDay           = 24
	entryMonth         = 25
	entryYear          = 26
	entryHour          = 27
	entryMin           = 28
	entrySec           = 29
	entryExtra         = 30
)

// Offsets inside of the label sector.
const (
	labelName  = 0
	labelDay   = 8
	labelMonth = 9
	labelYear  = 10
	labelHour  = 11
	labelMin   = 12
	labelSec   = 13
)

// byteOrder of every multi byte field.
var byteOrder = binary.BigEndian

// EntryRecord is the 32 byte directory entry.
type EntryRecord struct {
	Name          [8]byte
	Suffix        [3]byte
	Type          uint16
	FirstCluster  uint8
	LastSectorLen uint16
	Comment       [8]byte
	Day           uint8
	Month         uint8
	Year          uint8
	Hour          uint8
	Min           uint8
	Sec           uint8
	Extra         uint16
}

// LabelRecord is the head of the label sector. The rest of the sector is unused.
type LabelRecord struct {
	Name  [8]byte
	Day   uint8
	Month uint8
	Year  uint8
	Hour  uint8
	Min   uint8
	Sec   uint8
}

func unpackEntry(raw []byte) (EntryRecord, error) {
	var rec EntryRecord
	err := restruct.Unpack(raw[:FileInfoSize], byteOrder, &rec)
	return rec, err
}

func packEntry(rec EntryRecord, dst []byte) error {
	raw, err := restruct.Pack(byteOrder, &rec)
	if err != nil {
		return err
	}
	copy(dst[:FileInfoSize], raw)
	return nil
}

func unpackLabel(raw []byte) (LabelRecord, error) {
	var rec LabelRecord
	err := restruct.Unpack(raw[:labelSec+1], byteOrder, &rec)
	return rec, err
}
