// Package decompressioncache gives random-access io.ReaderAt semantics to
// a decoder that can only produce its output as one forward pass. A
// Stepper decodes the next chunk of a zstd stream and hands back both the
// chunk and a continuation; the cache remembers chunk boundaries it has
// already paid for so a later ReadAt at an overlapping offset resumes from
// the nearest known checkpoint instead of restarting the whole decode.
package decompressioncache

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"
)

// Stepper decodes the next chunk of a stream, starting where the previous
// Stepper left off. It is guaranteed never to be called more times than
// there are chunks, so it never needs to signal end-of-stream with a
// sentinel continuation; the caller tracks that via the reported length
// against the reader's declared size.
type Stepper func() (Stepper, []byte, error)

// New wraps a Stepper chain that produces the decoded content of a single
// zstd frame (or concatenated stream) in an io.ReaderAt of the given
// decoded size. Chunks are cached in a process-wide cache under a key made
// of streamID, a sequence number unique to this ReaderAt, and the chunk
// offset, so repeated ReadAt calls on the returned ReaderAt reuse
// already-decoded chunks; separate calls to New do not share chunks.
func New(stepper Stepper, decodedSize int64, streamID string) *ReaderAt {
	return &ReaderAt{
		uniq:        atomic.AddUint64(&monotonic, 1),
		streamID:    streamID,
		checkpoints: []checkpoint{{stepper: stepper, offset: 0}},
		size:        decodedSize,
	}
}

// Size reports the total decoded length, as declared by the frame header
// this ReaderAt was built from.
func (r *ReaderAt) Size() int64 {
	return r.size
}

// ReadAt decodes (or fetches from cache) whichever chunks overlap
// [off, off+len(p)) and copies their bytes into p.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	} else if off+int64(len(p)) > r.size {
		p = p[:r.size-off]
	}

	i := sort.Search(len(r.checkpoints), func(i int) bool {
		return r.checkpoints[i].offset > off
	}) - 1

	for { // with some care this loop could be concurrent
		key := fmt.Sprintf("%s_%d_%d", r.streamID, r.uniq, r.checkpoints[i].offset)
		blob, cacheErr := blockCache.Get(key)

		if cacheErr != nil { // decompress the block from the encoded stream
			newstepper, newblob, err := r.checkpoints[i].stepper()
			blob = newblob
			blockCache.Set(key, blob)
			r.checkpoints[i].err = err
			if r.checkpoints[i].offset+int64(len(blob)) >= r.size {
				r.checkpoints[i].err = io.EOF
			} else if i+1 == len(r.checkpoints) {
				r.checkpoints = append(r.checkpoints, checkpoint{
					stepper: newstepper,
					offset:  r.checkpoints[i].offset + int64(len(blob))})
			}
		}

		destcut, srccut, ok := overlap(off, len(p), r.checkpoints[i].offset, len(blob))
		if !ok {
			panic("obtained a decoded chunk that does not overlap the request")
		}
		n := copy(p[destcut:], blob[srccut:])
		if destcut+n == len(p) || r.checkpoints[i].err != nil {
			return destcut + n, r.checkpoints[i].err
		}

		i++
	}
}

// ReaderAt is a random-access view over one zstd stream's decoded
// content, backed by an in-process cache of already-decoded chunks.
type ReaderAt struct {
	uniq        uint64
	streamID    string
	checkpoints []checkpoint
	size        int64
}

type checkpoint struct {
	stepper Stepper
	offset  int64
	err     error
}

var monotonic uint64

var blockCache *bigcache.BigCache

func init() {
	c, err := bigcache.New(context.Background(), bigcache.Config{
		HardMaxCacheSize: 1024, // megabytes of decoded blocks
		Shards:           1024,
	})
	if err != nil {
		panic(err)
	}
	blockCache = c
}

func overlap(aoffset int64, alen int, boffset int64, blen int) (ainner, binner int, ok bool) {
	if aoffset >= boffset+int64(blen) || boffset >= aoffset+int64(alen) {
		return 0, 0, false
	}
	if aoffset > boffset {
		binner = int(aoffset - boffset)
	} else {
		ainner = int(boffset - aoffset)
	}
	return ainner, binner, true
}
