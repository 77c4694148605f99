package zstd

import "fmt"

const (
	blockTypeRaw = iota
	blockTypeRLE
	blockTypeCompressed
	blockTypeReserved
)

const maxBlockSize = 128 * 1024

// decodeBlocks walks the chain of blocks that make up a data frame's body,
// appending decompressed bytes to dst, until it processes a block with the
// last_block flag set. It returns the updated dst and the number of bytes
// of src consumed.
func decodeBlocks(dst []byte, src []byte, ctx *frameContext) ([]byte, int, error) {
	consumed := 0
	for {
		if len(src) < 3 {
			return nil, 0, ErrInputTruncated
		}
		header := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
		lastBlock := header&1 != 0
		blockType := (header >> 1) & 3
		blockSize := int(header >> 3)
		src = src[3:]
		consumed += 3

		if blockSize > maxBlockSize {
			return nil, 0, fmt.Errorf("block size %d exceeds max: %w", blockSize, ErrSizeInvalid)
		}

		// Block_Size means different things per type: the count of raw or
		// compressed bytes that follow for Raw/Compressed blocks, but for
		// RLE blocks it is the *decoded* repeat count — the block's wire
		// content is always exactly one byte.
		wireSize := blockSize
		if blockType == blockTypeRLE {
			wireSize = 1
		}
		if len(src) < wireSize {
			return nil, 0, ErrInputTruncated
		}
		body := src[:wireSize]

		var err error
		switch blockType {
		case blockTypeRaw:
			dst = append(dst, body...)
			ctx.cumulativeOutput += uint64(blockSize)
		case blockTypeRLE:
			if blockSize > 0 {
				value := body[0]
				for i := 0; i < blockSize; i++ {
					dst = append(dst, value)
				}
				ctx.cumulativeOutput += uint64(blockSize)
			}
		case blockTypeCompressed:
			dst, err = decodeCompressedBlock(dst, body, ctx)
			if err != nil {
				return nil, 0, err
			}
		case blockTypeReserved:
			return nil, 0, fmt.Errorf("reserved block type: %w", ErrReservedFieldSet)
		}

		src = src[wireSize:]
		consumed += wireSize

		if ctx.header.hasContentSize && ctx.cumulativeOutput > ctx.header.contentSize {
			return nil, 0, fmt.Errorf("decoded output exceeds declared frame content size: %w", ErrOutputInsufficient)
		}

		if lastBlock {
			return dst, consumed, nil
		}
	}
}

// skipBlockChain advances past a frame's block chain without decoding any
// payload, for callers that only need to know where the next frame starts
// (DecodedSize). It applies the same Block_Size and wire-size rules as
// decodeBlocks, including the RLE repeat-count distinction, but never
// touches literals or sequences.
func skipBlockChain(src []byte) (int, error) {
	consumed := 0
	for {
		if len(src) < 3 {
			return 0, ErrInputTruncated
		}
		header := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
		lastBlock := header&1 != 0
		blockType := (header >> 1) & 3
		blockSize := int(header >> 3)
		src = src[3:]
		consumed += 3

		if blockSize > maxBlockSize {
			return 0, fmt.Errorf("block size %d exceeds max: %w", blockSize, ErrSizeInvalid)
		}
		if blockType == blockTypeReserved {
			return 0, fmt.Errorf("reserved block type: %w", ErrReservedFieldSet)
		}

		wireSize := blockSize
		if blockType == blockTypeRLE {
			wireSize = 1
		}
		if len(src) < wireSize {
			return 0, ErrInputTruncated
		}
		src = src[wireSize:]
		consumed += wireSize

		if lastBlock {
			return consumed, nil
		}
	}
}

// decodeCompressedBlock decodes the literals and sequences sections of one
// compressed block and replays the sequences against dst.
func decodeCompressedBlock(dst []byte, body []byte, ctx *frameContext) ([]byte, error) {
	literals, litConsumed, err := decodeLiterals(body, ctx)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}

	seqs, err := decodeSequences(body[litConsumed:], ctx)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}

	dst, err = executeSequences(dst, literals, seqs, ctx)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	return dst, nil
}
