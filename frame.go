package zstd

import "fmt"

const (
	dataFrameMagic         = 0xFD2FB528
	skippableFrameMagicLow = 0x184D2A50
	skippableFrameMagicHi  = 0x184D2A5F
	dictionaryMagic        = 0xEC30A437
)

// frameHeader is the parsed form of a data frame's header fields.
type frameHeader struct {
	windowSize      uint64
	singleSegment   bool
	hasContentSize  bool
	contentSize     uint64
	hasDictionaryID bool
	dictionaryID    uint32
	checksumFlag    bool
	headerSize      int
}

// frameContext is the mutable state threaded through one frame's blocks:
// entropy tables that may be reused across blocks via "repeat" mode, the
// repeat-offset cache, and the running output count used to validate
// back-reference legality against the window and an optional dictionary.
type frameContext struct {
	header           frameHeader
	windowSize       uint64
	cumulativeOutput uint64
	offsetHistory    [3]uint64

	literalsTable *huffTable
	llTable       *fseTable
	ofTable       *fseTable
	mlTable       *fseTable

	dict *Dictionary
}

func (c *frameContext) dictContent() []byte {
	if c.dict == nil {
		return nil
	}
	return c.dict.content
}

func newFrameContext(header frameHeader, dict *Dictionary) *frameContext {
	ctx := &frameContext{
		header:        header,
		windowSize:    header.windowSize,
		offsetHistory: [3]uint64{1, 4, 8},
		dict:          dict,
	}
	if dict != nil && dict.formatted {
		ctx.offsetHistory = dict.offsetHistory
		ctx.literalsTable = dict.literalsTable
		ctx.llTable = dict.llTable
		ctx.ofTable = dict.ofTable
		ctx.mlTable = dict.mlTable
	}
	return ctx
}

// parseFrameHeader decodes a data frame's header, confirmed bit-for-bit
// against the reference decoder: the descriptor byte's bit 4 (from the LSB)
// carries no meaning and is never inspected, unlike the checked reserved
// bit at position 3.
func parseFrameHeader(src []byte) (frameHeader, error) {
	if len(src) < 1 {
		return frameHeader{}, ErrInputTruncated
	}
	descriptor := src[0]
	contentSizeFlag := descriptor >> 6
	singleSegment := (descriptor>>5)&1 != 0
	reserved := (descriptor >> 3) & 1
	checksumFlag := (descriptor>>2)&1 != 0
	dictIDFlag := descriptor & 3

	if reserved != 0 {
		return frameHeader{}, fmt.Errorf("frame header: reserved bit set: %w", ErrReservedFieldSet)
	}

	pos := 1
	h := frameHeader{checksumFlag: checksumFlag}

	if !singleSegment {
		if len(src) < pos+1 {
			return frameHeader{}, ErrInputTruncated
		}
		wd := src[pos]
		pos++
		exponent := wd >> 3
		mantissa := wd & 7
		base := uint64(1) << (10 + exponent)
		h.windowSize = base + (base/8)*uint64(mantissa)
	}

	dictIDBytes := [4]int{0, 1, 2, 4}[dictIDFlag]
	if dictIDBytes > 0 {
		if len(src) < pos+dictIDBytes {
			return frameHeader{}, ErrInputTruncated
		}
		var id uint32
		for i := 0; i < dictIDBytes; i++ {
			id |= uint32(src[pos+i]) << uint(8*i)
		}
		pos += dictIDBytes
		h.hasDictionaryID = true
		h.dictionaryID = id
	}

	if singleSegment || contentSizeFlag != 0 {
		sizeBytes := [4]int{1, 2, 4, 8}[contentSizeFlag]
		if len(src) < pos+sizeBytes {
			return frameHeader{}, ErrInputTruncated
		}
		var size uint64
		for i := 0; i < sizeBytes; i++ {
			size |= uint64(src[pos+i]) << uint(8*i)
		}
		pos += sizeBytes
		if sizeBytes == 2 {
			size += 256
		}
		h.hasContentSize = true
		h.contentSize = size
	}

	if singleSegment {
		h.windowSize = h.contentSize
	}

	h.headerSize = pos
	return h, nil
}

// decodeOneFrame reads exactly one frame (data or skippable) from the
// front of src, appends any decoded bytes to dst, and returns the updated
// dst and the number of bytes of src consumed. A trailing content checksum
// is skipped, or verified against the frame's output when validateChecksum
// is set; its bytes are not returned.
func decodeOneFrame(dst []byte, src []byte, dict *Dictionary, validateChecksum bool) ([]byte, int, error) {
	if len(src) < 4 {
		return nil, 0, ErrInputTruncated
	}
	magic := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24
	consumed := 4

	if magic >= skippableFrameMagicLow && magic <= skippableFrameMagicHi {
		if len(src) < consumed+4 {
			return nil, 0, ErrInputTruncated
		}
		size := int(readBitsLE(src, 32, consumed*8))
		consumed += 4
		if len(src) < consumed+size {
			return nil, 0, ErrInputTruncated
		}
		consumed += size
		return dst, consumed, nil
	}

	if magic != dataFrameMagic {
		return nil, 0, ErrBadMagic
	}

	header, err := parseFrameHeader(src[consumed:])
	if err != nil {
		return nil, 0, err
	}
	consumed += header.headerSize

	if dict != nil && header.hasDictionaryID && dict.formatted && dict.id != header.dictionaryID {
		return nil, 0, ErrUnknownDictionary
	}

	ctx := newFrameContext(header, dict)
	frameStart := len(dst)

	dst, bodyConsumed, err := decodeBlocks(dst, src[consumed:], ctx)
	if err != nil {
		return nil, 0, err
	}
	consumed += bodyConsumed

	if header.hasContentSize && ctx.cumulativeOutput != header.contentSize {
		return nil, 0, fmt.Errorf("decoded %d bytes, frame declared %d: %w", ctx.cumulativeOutput, header.contentSize, ErrOutputInsufficient)
	}

	if header.checksumFlag {
		if len(src) < consumed+4 {
			return nil, 0, ErrInputTruncated
		}
		checksumBytes := src[consumed : consumed+4]
		consumed += 4
		if validateChecksum {
			if err := verifyChecksum(dst[frameStart:], checksumBytes); err != nil {
				return nil, 0, err
			}
		}
	}

	return dst, consumed, nil
}
