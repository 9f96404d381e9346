package reader

import (
	"container/list"
	"sync"
)

// CachingReader wraps a Reader with an LRU cache of recently fetched tile
// bytes, keyed by (level, row, col), per spec §4.3: "a typical deployment
// caches the decoded header and level table for the lifetime of the
// reader, and caches recently fetched tile bytes... guarded by a
// reader-writer lock around an LRU map." The header and level table are
// already held for the Reader's lifetime by Reader itself; this type adds
// only the tile-byte cache.
type CachingReader struct {
	*Reader

	mu       sync.RWMutex
	capacity int
	entries  map[tileKey]*list.Element
	order    *list.List // front = most recently used
}

type tileKey struct {
	level    uint8
	row, col uint32
}

type cacheEntry struct {
	key  tileKey
	tile *Tile
}

// NewCachingReader wraps r with an LRU cache holding up to capacity tiles.
func NewCachingReader(r *Reader, capacity int) *CachingReader {
	return &CachingReader{
		Reader:   r,
		capacity: capacity,
		entries:  make(map[tileKey]*list.Element),
		order:    list.New(),
	}
}

// GetTile is safe for concurrent use. A cache hit touches no ByteSource.
func (c *CachingReader) GetTile(levelID uint8, row, col uint32) (*Tile, bool, error) {
	key := tileKey{levelID, row, col}

	if tile, ok := c.lookup(key); ok {
		return tile, tile != nil, nil
	}

	tile, found, err := c.Reader.GetTile(levelID, row, col)
	if err != nil {
		return nil, false, err
	}

	c.insert(key, tile)
	return tile, found, nil
}

// GetTileByCoord is the caching equivalent of Reader.GetTileByCoord.
func (c *CachingReader) GetTileByCoord(levelID uint8, easting, northing float64) (*Tile, bool, error) {
	lv, err := c.Level(levelID)
	if err != nil {
		return nil, false, err
	}
	row, col := lv.CoordToCell(easting, northing)
	if !lv.InGrid(row, col) {
		return nil, false, nil
	}
	return c.GetTile(levelID, uint32(row), uint32(col))
}

func (c *CachingReader) lookup(key tileKey) (*Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).tile, true
}

func (c *CachingReader) insert(key tileKey, tile *Tile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).tile = tile
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, tile: tile})
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*cacheEntry).key)
	}
}
