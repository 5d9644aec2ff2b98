// Package sectorcache holds sector buffers keyed by (track, sector).
// It knows nothing about the filesystem built on top of it and never talks to a device:
// writing dirty buffers back is the job of the disk layer.
package sectorcache

// Status of a cached sector buffer.
type Status int

const (
	// StatusNew means the buffer was never filled from the device.
	StatusNew Status = iota
	// StatusInitialized means the buffer matches the device content.
	StatusInitialized
	// StatusUpdated means the buffer was modified and has to be written back.
	StatusUpdated
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusInitialized:
		return "initialized"
	case StatusUpdated:
		return "updated"
	}
	return "unknown"
}

// Key addresses one physical sector. Sectors are numbered from 1.
type Key struct {
	Track  int
	Sector int
}

// Less orders keys physically, track first.
func (k Key) Less(other Key) bool {
	if k.Track != other.Track {
		return k.Track < other.Track
	}
	return k.Sector < other.Sector
}

// Node is one cached sector.
type Node struct {
	Key
	Status Status
	// UID is the use-order id. It grows with every creation or reuse of a node.
	UID    uint64
	Buffer []byte
}

// Dirty reports whether the node waits for a write back.
func (n *Node) Dirty() bool {
	return n.Status == StatusUpdated
}

// Cache is an unordered set of nodes with at most one node per key.
type Cache struct {
	sectorSize int
	nodes      map[Key]*Node
	nextUID    uint64
}

// New creates an empty cache for sectors of sectorSize bytes.
func New(sectorSize int) *Cache {
	return &Cache{
		sectorSize: sectorSize,
		nodes:      make(map[Key]*Node),
	}
}

// SectorSize of every buffer held by the cache.
func (c *Cache) SectorSize() int {
	return c.sectorSize
}

func (c *Cache) uid() uint64 {
	c.nextUID++
	return c.nextUID
}

// Find returns the resident node for the sector or nil.
func (c *Cache) Find(track, sector int) *Node {
	return c.nodes[Key{Track: track, Sector: sector}]
}

// Obtain returns the resident node for the sector. If there is none and create is set,
// a zero-filled node with StatusNew is added. Otherwise nil is returned.
func (c *Cache) Obtain(track, sector int, create bool) *Node {
	key := Key{Track: track, Sector: sector}
	if node, ok := c.nodes[key]; ok {
		return node
	}
	if !create {
		return nil
	}

	node := &Node{
		Key:    key,
		Status: StatusNew,
		UID:    c.uid(),
		Buffer: make([]byte, c.sectorSize),
	}
	c.nodes[key] = node
	return node
}

// ObtainOlder repurposes the clean node with the smallest use-order id for the given
// sector. The buffer is zeroed, the status reset to StatusNew and a fresh id assigned.
// It returns nil if every node is dirty.
func (c *Cache) ObtainOlder(track, sector int) *Node {
	key := Key{Track: track, Sector: sector}
	if existing, ok := c.nodes[key]; ok {
		// A resident node is never duplicated.
		return existing
	}

	var older *Node
	for _, node := range c.nodes {
		if node.Dirty() {
			continue
		}
		if older == nil || node.UID < older.UID {
			older = node
		}
	}
	if older == nil {
		return nil
	}

	delete(c.nodes, older.Key)
	for i := range older.Buffer {
		older.Buffer[i] = 0
	}
	older.Key = key
	older.Status = StatusNew
	older.UID = c.uid()
	c.nodes[key] = older
	return older
}

// Release hands a node back. A dirty release marks it as updated, otherwise the status
// is left as it is.
func (c *Cache) Release(node *Node, dirty bool) {
	if node != nil && dirty {
		node.Status = StatusUpdated
	}
}

// MarkClean flags a node as matching the device content again.
func (c *Cache) MarkClean(node *Node) {
	if node != nil {
		node.Status = StatusInitialized
	}
}

// Count of resident nodes.
func (c *Cache) Count() int {
	return len(c.nodes)
}

// MinDirty returns the dirty node with the physically smallest key, or nil.
func (c *Cache) MinDirty() *Node {
	var min *Node
	for _, node := range c.nodes {
		if !node.Dirty() {
			continue
		}
		if min == nil || node.Key.Less(min.Key) {
			min = node
		}
	}
	return min
}

// Remove drops a single node, dirty or not.
func (c *Cache) Remove(node *Node) {
	if node == nil {
		return
	}
	if resident, ok := c.nodes[node.Key]; ok && resident == node {
		delete(c.nodes, node.Key)
	}
}

// Evict drops the clean node with the smallest use-order id.
// It returns false if every node is dirty.
func (c *Cache) Evict() bool {
	var older *Node
	for _, node := range c.nodes {
		if !node.Dirty() && (older == nil || node.UID < older.UID) {
			older = node
		}
	}
	if older == nil {
		return false
	}
	delete(c.nodes, older.Key)
	return true
}

// Flush drops every node without writing anything back.
func (c *Cache) Flush() {
	c.nodes = make(map[Key]*Node)
}
