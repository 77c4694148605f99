package zstd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/facebook/zstd-sub003/internal/decompressioncache"
)

// NewSeekableReader decodes a single zstd frame (or concatenated stream)
// in src and returns a random-access view over its content. Unlike
// Decompress, which always materializes the whole output, repeated reads
// of overlapping ranges from the returned io.ReaderAt reuse decoded bytes
// already paid for rather than decoding src again.
//
// src must declare its content size: frames produced with an unknown size
// (a streaming encode that never closes with a known length) cannot be
// sized up front and are rejected with ErrSizeInvalid.
func (d *Decoder) NewSeekableReader(src []byte) (io.ReaderAt, error) {
	size, known, err := DecodedSize(src)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("seekable reader requires a frame with a known content size: %w", ErrSizeInvalid)
	}

	digest := sha256.Sum256(src)
	streamID := hex.EncodeToString(digest[:8])

	// The block layer does not expose a resumable cursor today, so the
	// whole frame decodes as a single chunk; the cache still saves repeat
	// ReadAt calls, and a future incremental decodeBlocks could split this
	// into one chunk per block without touching decompressioncache itself.
	stepper := func() (decompressioncache.Stepper, []byte, error) {
		out, err := d.decompressAppend(make([]byte, 0, size), src)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, io.EOF
	}

	return decompressioncache.New(stepper, int64(size), streamID), nil
}
