package zstd

import "fmt"

const maxLiteralsSize = 128 * 1024

// decodeLiterals parses and decodes the literals section at the front of a
// compressed block's body, returning the regenerated literal bytes and the
// number of bytes of src it consumed. ctx.literalsTable may be read (mode
// "repeat") or replaced (mode "new tree") as a side effect.
func decodeLiterals(src []byte, ctx *frameContext) ([]byte, int, error) {
	if len(src) < 1 {
		return nil, 0, ErrInputTruncated
	}
	blockType := src[0] & 3
	sizeFormat := (src[0] >> 2) & 3

	if blockType <= 1 {
		return decodeLiteralsSimple(src, blockType, sizeFormat)
	}
	return decodeLiteralsCompressed(src, ctx, blockType, sizeFormat)
}

func decodeLiteralsSimple(src []byte, blockType, sizeFormat byte) ([]byte, int, error) {
	var size, headerLen int
	switch sizeFormat {
	case 0, 2:
		size = int(readBitsLE(src, 5, 3))
		headerLen = 1
	case 1:
		if len(src) < 2 {
			return nil, 0, ErrInputTruncated
		}
		size = int(readBitsLE(src, 12, 4))
		headerLen = 2
	case 3:
		if len(src) < 3 {
			return nil, 0, ErrInputTruncated
		}
		size = int(readBitsLE(src, 20, 4))
		headerLen = 3
	}

	if size > maxLiteralsSize {
		return nil, 0, fmt.Errorf("literals: regenerated size %d exceeds max: %w", size, ErrSizeInvalid)
	}

	body := src[headerLen:]
	out := make([]byte, size)
	switch blockType {
	case 0: // raw
		if size > len(body) {
			return nil, 0, ErrInputTruncated
		}
		copy(out, body[:size])
		return out, headerLen + size, nil
	case 1: // RLE
		if len(body) < 1 {
			return nil, 0, ErrInputTruncated
		}
		for i := range out {
			out[i] = body[0]
		}
		return out, headerLen + 1, nil
	}
	panic("unreachable literals block type")
}

func decodeLiteralsCompressed(src []byte, ctx *frameContext, blockType, sizeFormat byte) ([]byte, int, error) {
	var regeneratedSize, compressedSize, headerLen int
	numStreams := 4

	switch sizeFormat {
	case 0:
		numStreams = 1
		fallthrough
	case 1:
		if len(src) < 3 {
			return nil, 0, ErrInputTruncated
		}
		regeneratedSize = int(readBitsLE(src, 10, 4))
		compressedSize = int(readBitsLE(src, 10, 14))
		headerLen = 3
	case 2:
		if len(src) < 4 {
			return nil, 0, ErrInputTruncated
		}
		regeneratedSize = int(readBitsLE(src, 14, 4))
		compressedSize = int(readBitsLE(src, 14, 18))
		headerLen = 4
	case 3:
		if len(src) < 5 {
			return nil, 0, ErrInputTruncated
		}
		regeneratedSize = int(readBitsLE(src, 18, 4))
		compressedSize = int(readBitsLE(src, 18, 22))
		headerLen = 5
	}

	if regeneratedSize > maxLiteralsSize || compressedSize > regeneratedSize {
		return nil, 0, fmt.Errorf("literals: size fields out of range: %w", ErrSizeInvalid)
	}
	body := src[headerLen:]
	if compressedSize > len(body) {
		return nil, 0, ErrInputTruncated
	}
	compressed := body[:compressedSize]

	if blockType == 2 { // new Huffman tree
		table, consumed, err := decodeHuffmanTableDescription(compressed)
		if err != nil {
			return nil, 0, fmt.Errorf("literals: %w", err)
		}
		ctx.literalsTable = table
		compressed = compressed[consumed:]
	} else if ctx.literalsTable == nil {
		return nil, 0, fmt.Errorf("literals: reuse requested with no prior table: %w", ErrTableMalformed)
	}

	var out []byte
	var err error
	if numStreams == 1 {
		out, err = ctx.literalsTable.decode1X(compressed, regeneratedSize)
	} else {
		out, err = ctx.literalsTable.decode4X(compressed, regeneratedSize)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("literals: %w", err)
	}

	return out, headerLen + compressedSize, nil
}
