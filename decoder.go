// Package zstd implements a Zstandard (RFC 8878) frame decompressor: a
// pure-Go reader of the data-frame format, its LZ77-over-FSE/Huffman block
// entropy coding, and the dictionary and checksum extensions to the format.
package zstd

import "fmt"

const defaultMaxWindowSize = 128 * 1024 * 1024

// Decoder holds configuration shared across repeated Decompress calls: a
// dictionary, whether to validate content checksums, and the largest
// window size a frame is permitted to declare.
type Decoder struct {
	dict             *Dictionary
	validateChecksum bool
	maxWindowSize    uint64
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithDictionary makes the decoder resolve dictionary-id-bearing frames
// against d.
func WithDictionary(d *Dictionary) Option {
	return func(dec *Decoder) { dec.dict = d }
}

// WithChecksumValidation enables verifying each frame's trailing XXH64
// content checksum, when present, against the decoded output.
func WithChecksumValidation() Option {
	return func(dec *Decoder) { dec.validateChecksum = true }
}

// WithMaxWindowSize rejects frames whose window size exceeds n, bounding
// the memory a hostile frame header can force the decoder to commit to.
func WithMaxWindowSize(n uint64) Option {
	return func(dec *Decoder) { dec.maxWindowSize = n }
}

// NewDecoder builds a Decoder from opts. The zero value decoder (no
// options) has no dictionary, does not validate checksums, and caps window
// size at 128 MiB.
func NewDecoder(opts ...Option) *Decoder {
	dec := &Decoder{maxWindowSize: defaultMaxWindowSize}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// Decompress appends the decoded form of src to dst and returns the
// resulting slice, decoding every concatenated frame (data or skippable)
// present in src. As with append, the returned slice may share dst's
// backing array or may not; callers must use the returned value, not dst,
// to see the result.
func (d *Decoder) Decompress(dst []byte, src []byte) ([]byte, error) {
	return d.decompressAppend(dst, src)
}

// decompressAppend is Decompress's actual engine, named distinctly so
// internal callers (Reader, NewSeekableReader) read as using the package's
// own decode path rather than going through the public API recursively.
func (d *Decoder) decompressAppend(dst []byte, src []byte) ([]byte, error) {
	out := dst
	for len(src) > 0 {
		header, err := peekWindowSize(src)
		if err == nil && header > d.maxWindowSize {
			return nil, fmt.Errorf("frame window size %d exceeds configured max %d: %w", header, d.maxWindowSize, ErrSizeInvalid)
		}

		var n int
		out, n, err = decodeOneFrame(out, src, d.dict, d.validateChecksum)
		if err != nil {
			return nil, err
		}
		src = src[n:]
	}
	return out, nil
}

// peekWindowSize inspects a data frame's header, without decoding it, to
// read the window size it declares. It returns 0, non-nil for a skippable
// frame or malformed header, which Decompress treats as "no limit to
// enforce up front" and lets the real parse surface any real error.
func peekWindowSize(src []byte) (uint64, error) {
	if len(src) < 5 {
		return 0, ErrInputTruncated
	}
	magic := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24
	if magic != dataFrameMagic {
		return 0, ErrBadMagic
	}
	h, err := parseFrameHeader(src[4:])
	if err != nil {
		return 0, err
	}
	return h.windowSize, nil
}

// Decompress is a convenience wrapper equivalent to
// NewDecoder().Decompress(dst, src).
func Decompress(dst, src []byte) ([]byte, error) {
	return NewDecoder().Decompress(dst, src)
}

// DecompressWithDict is a convenience wrapper equivalent to
// NewDecoder(WithDictionary(dict)).Decompress(dst, src).
func DecompressWithDict(dst, src []byte, dict *Dictionary) ([]byte, error) {
	return NewDecoder(WithDictionary(dict)).Decompress(dst, src)
}

// DecodedSize walks every frame header and block boundary in src, without
// decoding any block's payload, and sums the content sizes the data frames
// declare. Skippable frames contribute nothing and are skipped whole. known
// is false as soon as any data frame omits its content size (a streaming
// encoder writing with unknown length up front) — from that point on the
// total decoded length cannot be determined without actually decoding, so
// the walk stops and reports the partial sum as unknown.
func DecodedSize(src []byte) (size uint64, known bool, err error) {
	var total uint64
	pos := 0
	for pos < len(src) {
		if len(src) < pos+4 {
			return 0, false, ErrInputTruncated
		}
		magic := uint32(src[pos]) | uint32(src[pos+1])<<8 | uint32(src[pos+2])<<16 | uint32(src[pos+3])<<24

		if magic >= skippableFrameMagicLow && magic <= skippableFrameMagicHi {
			if len(src) < pos+8 {
				return 0, false, ErrInputTruncated
			}
			frameSize := int(readBitsLE(src, 32, (pos+4)*8))
			if len(src) < pos+8+frameSize {
				return 0, false, ErrInputTruncated
			}
			pos += 8 + frameSize
			continue
		}
		if magic != dataFrameMagic {
			return 0, false, ErrBadMagic
		}

		h, err := parseFrameHeader(src[pos+4:])
		if err != nil {
			return 0, false, err
		}
		pos += 4 + h.headerSize

		blockBytes, err := skipBlockChain(src[pos:])
		if err != nil {
			return 0, false, err
		}
		pos += blockBytes

		if h.checksumFlag {
			if len(src) < pos+4 {
				return 0, false, ErrInputTruncated
			}
			pos += 4
		}

		if !h.hasContentSize {
			return total, false, nil
		}
		total += h.contentSize
	}
	return total, true, nil
}
