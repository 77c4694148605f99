package zstd

import (
	"encoding/binary"
	"hash/maphash"
	"sync"

	"github.com/dgryski/go-tinylfu"
)

// DictTableCache holds parsed Dictionary values keyed by their wire id, so
// a long-lived process serving many small frames against the same handful
// of dictionaries pays the entropy-table-build cost once per dictionary id
// rather than once per NewDictionary call. Admission is governed by
// TinyLFU rather than strict LRU: a dictionary id that is reused heavily
// survives scanning pressure from one-off ids far better than plain LRU
// would.
type DictTableCache struct {
	mu   sync.Mutex
	tlfu *tinylfu.T[uint32, *Dictionary]
}

func newDictTableCache(capacity int) *DictTableCache {
	seed := maphash.MakeSeed()
	hash := func(id uint32) uint64 {
		var b [4]byte
		b[0], b[1], b[2], b[3] = byte(id), byte(id>>8), byte(id>>16), byte(id>>24)
		return maphash.Bytes(seed, b[:])
	}
	return &DictTableCache{
		tlfu: tinylfu.New[uint32, *Dictionary](capacity, capacity*10, hash),
	}
}

func (c *DictTableCache) get(id uint32) (*Dictionary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tlfu.Get(id)
}

func (c *DictTableCache) add(id uint32, d *Dictionary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tlfu.Add(id, d)
}

// NewDictionaryCached is NewDictionary, but consults and populates cache
// keyed by the dictionary's own id field so repeated loads of the same
// raw bytes (e.g. re-reading a dictionary file per request) build the
// entropy tables only once.
func NewDictionaryCached(cache *DictTableCache, raw []byte) (*Dictionary, error) {
	if len(raw) >= 8 && binary.LittleEndian.Uint32(raw) == dictionaryMagic {
		if cached, ok := cache.get(binary.LittleEndian.Uint32(raw[4:8])); ok {
			return cached, nil
		}
	}
	d, err := NewDictionary(raw)
	if err != nil {
		return nil, err
	}
	if !d.formatted {
		return d, nil
	}
	cache.add(d.id, d)
	return d, nil
}

// NewDictTableCache builds a process-wide cache capable of holding
// capacity parsed dictionaries, for use with NewDictionaryCached.
func NewDictTableCache(capacity int) *DictTableCache {
	return newDictTableCache(capacity)
}
