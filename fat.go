package tofs

import (
	"github.com/aligator/tofs/checkpoint"
)

// fatGet returns the FAT value of a cluster. FAT[0] is unused, cluster c lives at c+1.
func (fs *Fs) fatGet(cluster int) int {
	return int(fs.fat[cluster+1])
}

func (fs *Fs) fatSet(cluster, value int) {
	fs.fat[cluster+1] = byte(value)
	fs.dirty[fatSector-1] = true
}

// isLink reports whether a FAT value points to another cluster.
// Everything else ends a chain, including links out of range.
func (fs *Fs) isLink(v int) bool {
	return v >= 0 && v <= clusterTerm && v < fs.geo.MaxBlocks()
}

// sectorsUsed returns the used sectors of the last cluster of a chain, given its FAT value.
func (fs *Fs) sectorsUsed(v int) int {
	n := v - clusterTerm
	if n < 1 {
		n = 1
	}
	if n > fs.geo.SectorsPerBlock() {
		n = fs.geo.SectorsPerBlock()
	}
	return n
}

// terminate makes cluster the last one of its chain, with sectors 0 to sectorIdx used.
func (fs *Fs) terminate(cluster, sectorIdx int) {
	fs.fatSet(cluster, clusterTerm+sectorIdx+1)
}

// allocate finds a free cluster, preferably after hint, links it behind hint and
// terminates the file idx with it. A negative hint starts at the system track.
func (fs *Fs) allocate(idx, hint int) (int, error) {
	if hint < 0 {
		hint = ClusterSys
	}

	found := -1
	for c := hint; c < fs.geo.MaxBlocks() && found < 0; c++ {
		if fs.fatGet(c) == clusterFree {
			found = c
		}
	}
	for c := hint; c >= 0 && found < 0; c-- {
		if fs.fatGet(c) == clusterFree {
			found = c
		}
	}
	if found < 0 {
		return -1, checkpoint.From(ErrDiskFull)
	}

	if fs.fatGet(hint) != clusterReserved {
		fs.fatSet(hint, found)
	}
	fs.terminate(found, 0)
	fs.setLastSectorLen(idx, 0)

	fs.log.WithField("cluster", found).Trace("cluster allocated")
	return found, nil
}

// chainSize returns the size of the chain starting at first, with endSize bytes in its
// last sector, and the number of clusters in it.
// The walk stops after MaxBlocks clusters, so a looping chain cannot hang it.
func (fs *Fs) chainSize(first, endSize int) (size int, blocks int) {
	if !fs.isLink(first) {
		return 0, 0
	}

	blocks = 1
	v := fs.fatGet(first)
	for blocks < fs.geo.MaxBlocks() && fs.isLink(v) {
		endSize += fs.geo.BlockSize()
		v = fs.fatGet(v)
		blocks++
	}
	return endSize + fs.geo.FSSectorSize()*(fs.sectorsUsed(v)-1), blocks
}

// freeChain frees cluster and every cluster following it.
func (fs *Fs) freeChain(cluster int) {
	for i := 0; i < fs.geo.MaxBlocks() && fs.isLink(cluster); i++ {
		next := fs.fatGet(cluster)
		fs.fatSet(cluster, clusterFree)
		cluster = next
	}
}

// location of an offset inside of a file.
type location struct {
	cluster int
	// sector index inside of the cluster
	sector int
	// pos inside of the sector and end of the readable (or writable) part of it
	pos int
	end int
	// offset which could be reached, at most the requested one
	offset int
}

// resolveOffset finds the sector holding offset in file idx.
// With grow, missing clusters are allocated and the whole last cluster is considered
// usable, which lets SetSize extend a file. Without grow the location never passes the
// end of the file.
func (fs *Fs) resolveOffset(idx, offset int, grow bool) (location, error) {
	loc := location{cluster: fs.firstCluster(idx)}
	if !fs.isLink(loc.cluster) {
		loc.cluster = -1
		return loc, nil
	}

	blockSize := fs.geo.BlockSize()
	next := fs.fatGet(loc.cluster)
	for i := 0; loc.offset+blockSize <= offset && i < fs.geo.MaxBlocks(); i++ {
		if !fs.isLink(next) {
			if !grow {
				break
			}
			n, err := fs.allocate(idx, loc.cluster)
			if err != nil {
				return loc, err
			}
			next = n
		}
		loc.offset += blockSize
		loc.cluster = next
		next = fs.fatGet(loc.cluster)
	}

	last := !fs.isLink(next)
	limit := fs.geo.SectorsPerBlock()
	if last && !grow {
		limit = fs.sectorsUsed(next)
	}

	fss := fs.geo.FSSectorSize()
	for loc.offset+fss <= offset && loc.sector+1 < limit {
		loc.offset += fss
		loc.sector++
	}

	loc.end = fss
	if last && !grow && loc.sector+1 >= limit {
		loc.end = fs.lastSectorLen(idx)
		if loc.end > fss {
			loc.end = fss
		}
	}

	loc.pos = offset - loc.offset
	if loc.pos > loc.end {
		loc.pos = loc.end
	}
	loc.offset += loc.pos
	return loc, nil
}

// fileSize returns the size of file idx.
func (fs *Fs) fileSize(idx int) int {
	size, _ := fs.chainSize(fs.firstCluster(idx), fs.lastSectorLen(idx))
	return size
}

// ensureCluster gives a file without any cluster its first one.
func (fs *Fs) ensureCluster(idx int) error {
	if fs.isLink(fs.firstCluster(idx)) {
		return nil
	}
	cluster, err := fs.allocate(idx, -1)
	if err != nil {
		return err
	}
	fs.entry(idx)[entryFirstCluster] = byte(cluster)
	fs.markEntry(idx)
	return nil
}

// setSize cuts or extends file idx to size. Extended bytes read as zeros.
// If the disk runs full, the FAT and the entry are left as they were.
func (fs *Fs) setSize(idx, size int) error {
	fatBackup := append([]byte(nil), fs.fat...)
	entryBackup := append([]byte(nil), fs.entry(idx)...)
	restore := func() {
		copy(fs.fat, fatBackup)
		copy(fs.entry(idx), entryBackup)
	}

	if err := fs.ensureCluster(idx); err != nil {
		return err
	}
	old := fs.fileSize(idx)

	loc, err := fs.resolveOffset(idx, size, true)
	if err != nil {
		restore()
		return err
	}
	fs.freeChain(loc.cluster)
	fs.terminate(loc.cluster, loc.sector)
	fs.setLastSectorLen(idx, loc.pos)

	if size > old {
		return fs.zeroRange(idx, old, size)
	}
	return nil
}

// zeroRange clears the bytes from to to of file idx through the cache.
func (fs *Fs) zeroRange(idx, from, to int) error {
	for from < to {
		loc, err := fs.resolveOffset(idx, from, false)
		if err != nil {
			return err
		}
		if loc.pos >= loc.end {
			return nil
		}

		end := loc.end
		if end-loc.pos > to-from {
			end = loc.pos + to - from
		}

		track, sector := fs.geo.clusterAddress(loc.cluster, loc.sector)
		node, err := fs.dl.GetSector(track, sector, loc.pos > 0 || end < fs.geo.FSSectorSize())
		if err != nil {
			return fs.dlError(err)
		}
		for i := loc.pos; i < end; i++ {
			node.Buffer[i] = 0
		}
		fs.dl.Release(node, true)
		from += end - loc.pos
	}
	return nil
}
