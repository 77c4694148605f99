package zstd

import "fmt"

const huffMaxSymbols = 256

// huffTable is a canonical-Huffman decoding table: a flat array of
// 2^depth entries, each (symbol, bits consumed), indexed directly by the
// current bit-reader state.
type huffTable struct {
	depth   int
	entries []huffEntry
}

type huffEntry struct {
	symbol byte
	bits   uint8
}

// decodeHuffmanTableDescription reads the table description at the front
// of a compressed-literals section (new tree) and returns the resulting
// table plus the number of bytes consumed.
func decodeHuffmanTableDescription(src []byte) (*huffTable, int, error) {
	if len(src) < 1 {
		return nil, 0, ErrInputTruncated
	}
	header := src[0]

	var weights []byte
	var consumed int

	if header >= 128 {
		numSymbols := int(header) - 127
		weights = make([]byte, numSymbols)
		weightBytes := (numSymbols + 1) / 2
		if len(src) < 1+weightBytes {
			return nil, 0, ErrInputTruncated
		}
		for i := 0; i < numSymbols; i++ {
			b := src[1+i/2]
			if i%2 == 0 {
				weights[i] = b >> 4
			} else {
				weights[i] = b & 0x0f
			}
		}
		consumed = 1 + weightBytes
	} else {
		totalSize := int(header)
		if totalSize < 1 || len(src) < totalSize {
			return nil, 0, ErrInputTruncated
		}
		fseSrc := src[1:totalSize]
		table, hdrLen, err := decodeFSEHeader(fseSrc, 6)
		if err != nil {
			return nil, 0, fmt.Errorf("huffman weight table: %w", err)
		}
		bitstream := fseSrc[hdrLen:]
		decoded, err := decodeInterleaved2(table, bitstream, huffMaxSymbols)
		if err != nil {
			return nil, 0, fmt.Errorf("huffman weight table: %w", err)
		}
		weights = decoded
		consumed = totalSize
	}

	t, err := buildHuffTableFromWeights(weights)
	if err != nil {
		return nil, 0, err
	}
	return t, consumed, nil
}

// buildHuffTableFromWeights derives the unsent last weight, converts
// weights to code lengths, and builds the flat decode table.
func buildHuffTableFromWeights(weights []byte) (*huffTable, error) {
	if len(weights)+1 > huffMaxSymbols {
		return nil, fmt.Errorf("huffman table: too many symbols: %w", ErrSizeInvalid)
	}

	var weightSum uint64
	for _, w := range weights {
		if w > 0 {
			weightSum += uint64(1) << uint(w-1)
		}
	}

	maxBits := log2inf(int(weightSum)) + 1
	if maxBits < 1 {
		maxBits = 1
	}
	leftOver := (uint64(1) << uint(maxBits)) - weightSum
	if leftOver&(leftOver-1) != 0 {
		return nil, fmt.Errorf("huffman table: weights do not sum to a power of two: %w", ErrTableMalformed)
	}
	lastWeight := log2inf(int(leftOver)) + 1

	codeLen := make([]uint8, len(weights)+1)
	for i, w := range weights {
		if w > 0 {
			codeLen[i] = uint8(maxBits + 1 - int(w))
		}
	}
	codeLen[len(weights)] = uint8(maxBits + 1 - lastWeight)

	return buildHuffTableFromCodeLengths(codeLen, maxBits)
}

// buildHuffTableFromCodeLengths assigns contiguous table slots rank by
// rank, longest codes first, symbols in ascending order within a rank —
// the same placement the reference decoder's rank_idx walk produces.
func buildHuffTableFromCodeLengths(codeLen []uint8, depth int) (*huffTable, error) {
	size := 1 << uint(depth)
	entries := make([]huffEntry, size)
	pos := 0
	for k := depth; k >= 1; k-- {
		for sym, l := range codeLen {
			if int(l) != k {
				continue
			}
			slots := 1 << uint(depth-k)
			for i := 0; i < slots; i++ {
				entries[pos] = huffEntry{symbol: byte(sym), bits: uint8(k)}
				pos++
			}
		}
	}
	if pos != size {
		return nil, fmt.Errorf("huffman table: code lengths do not tile the table: %w", ErrTableMalformed)
	}
	return &huffTable{depth: depth, entries: entries}, nil
}

// decode1X decodes a single Huffman-coded stream into exactly dstLen bytes.
func (t *huffTable) decode1X(src []byte, dstLen int) ([]byte, error) {
	if dstLen == 0 {
		return nil, nil
	}
	br, err := newReverseBitReader(src)
	if err != nil {
		return nil, err
	}

	mask := (1 << uint(t.depth)) - 1
	state := int(br.read(t.depth))

	dst := make([]byte, dstLen)
	for i := 0; i < dstLen; i++ {
		e := t.entries[state&mask]
		dst[i] = e.symbol
		state = ((state << uint(e.bits)) + int(br.read(int(e.bits)))) & mask
	}

	if br.bitsRemaining() != -t.depth {
		return nil, fmt.Errorf("huffman stream: ended at bit %d, want %d: %w", br.bitsRemaining(), -t.depth, ErrBitstreamDesync)
	}
	return dst, nil
}

// decode4X decodes the 4-independent-stream layout used whenever the
// literals header selects more than one Huffman stream.
func (t *huffTable) decode4X(src []byte, dstLen int) ([]byte, error) {
	if len(src) < 6 {
		return nil, ErrInputTruncated
	}
	s1 := int(readBitsLE(src, 16, 0))
	s2 := int(readBitsLE(src, 16, 16))
	s3 := int(readBitsLE(src, 16, 32))

	o0 := 6
	o1 := o0 + s1
	o2 := o1 + s2
	o3 := o2 + s3
	if o3 > len(src) {
		return nil, ErrInputTruncated
	}

	segSize := (dstLen + 3) / 4
	sizes := [4]int{segSize, segSize, segSize, dstLen - 3*segSize}
	if sizes[3] < 0 {
		return nil, fmt.Errorf("huffman 4-stream: regenerated size too small: %w", ErrSizeInvalid)
	}

	streams := [4][]byte{src[o0:o1], src[o1:o2], src[o2:o3], src[o3:]}
	dst := make([]byte, 0, dstLen)
	for i := 0; i < 4; i++ {
		part, err := t.decode1X(streams[i], sizes[i])
		if err != nil {
			return nil, fmt.Errorf("huffman 4-stream: stream %d: %w", i, err)
		}
		dst = append(dst, part...)
	}
	return dst, nil
}
