package zstd

import "fmt"

// sequence is the decoder's atomic copy instruction: draw literalLength
// bytes from the literals pool, then copy matchLength bytes from offset
// bytes back in the reconstructed output.
type sequence struct {
	literalLength int
	matchLength   int
	offset        uint64
}

const (
	seqModePredefined = 0
	seqModeRLE        = 1
	seqModeFSE        = 2
	seqModeRepeat     = 3
)

const (
	maxLiteralLengthCode = 35
	maxMatchLengthCode   = 52
)

var literalLengthBaselines = [36]uint64{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11,
	12, 13, 14, 15, 16, 18, 20, 22, 24, 28, 32, 40,
	48, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65538,
}

var literalLengthExtraBits = [36]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 3, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
}

var matchLengthBaselines = [53]uint64{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30,
	31, 32, 33, 34, 35, 37, 39, 41, 43, 47, 51, 59, 67, 83,
	99, 131, 259, 515, 1027, 2051, 4099, 8195, 16387, 32771, 65539,
}

var matchLengthExtraBits = [53]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1,
	2, 2, 3, 3, 4, 4, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
}

const (
	maxAccuracyLiteralLength = 9
	maxAccuracyOffset        = 8
	maxAccuracyMatchLength   = 9
)

// decodeSequences parses the sequences section that occupies the remainder
// of a compressed block's body (after the literals section), updating the
// frame context's three persistent FSE tables as each component's mode
// dictates.
func decodeSequences(body []byte, ctx *frameContext) ([]sequence, error) {
	if len(body) < 1 {
		return nil, ErrInputTruncated
	}

	v0 := body[0]
	var numSeq int
	var rest []byte
	switch {
	case v0 == 0:
		return nil, nil
	case v0 < 128:
		numSeq = int(v0)
		rest = body[1:]
	case v0 < 255:
		if len(body) < 2 {
			return nil, ErrInputTruncated
		}
		numSeq = (int(v0-128) << 8) + int(body[1])
		rest = body[2:]
	default:
		if len(body) < 3 {
			return nil, ErrInputTruncated
		}
		numSeq = int(body[1]) + (int(body[2]) << 8) + 0x7F00
		rest = body[3:]
	}

	if len(rest) < 1 {
		return nil, ErrInputTruncated
	}
	compressionModes := rest[0]
	rest = rest[1:]
	if compressionModes&3 != 0 {
		return nil, fmt.Errorf("sequences: compression-modes reserved bits set: %w", ErrReservedFieldSet)
	}

	llMode := (compressionModes >> 6) & 3
	ofMode := (compressionModes >> 4) & 3
	mlMode := (compressionModes >> 2) & 3

	var err error
	rest, err = applySeqTable(rest, &ctx.llTable, llMode, predefinedLiteralLengthDist, predefinedLiteralLengthAccuracy, maxAccuracyLiteralLength)
	if err != nil {
		return nil, fmt.Errorf("sequences: literal-length table: %w", err)
	}
	rest, err = applySeqTable(rest, &ctx.ofTable, ofMode, predefinedOffsetDist, predefinedOffsetAccuracy, maxAccuracyOffset)
	if err != nil {
		return nil, fmt.Errorf("sequences: offset table: %w", err)
	}
	rest, err = applySeqTable(rest, &ctx.mlTable, mlMode, predefinedMatchLengthDist, predefinedMatchLengthAccuracy, maxAccuracyMatchLength)
	if err != nil {
		return nil, fmt.Errorf("sequences: match-length table: %w", err)
	}

	if numSeq == 0 {
		return nil, nil
	}

	br, err := newReverseBitReader(rest)
	if err != nil {
		return nil, fmt.Errorf("sequences: %w", err)
	}

	llState := newFSEState(ctx.llTable, br)
	ofState := newFSEState(ctx.ofTable, br)
	mlState := newFSEState(ctx.mlTable, br)

	seqs := make([]sequence, numSeq)
	for i := 0; i < numSeq; i++ {
		ofCode := int(ofState.peekSymbol())
		llCode := int(llState.peekSymbol())
		mlCode := int(mlState.peekSymbol())

		if llCode > maxLiteralLengthCode || mlCode > maxMatchLengthCode {
			return nil, fmt.Errorf("sequences: code exceeds max: %w", ErrSizeInvalid)
		}

		offset := (uint64(1) << uint(ofCode)) + br.read(ofCode)
		matchLength := matchLengthBaselines[mlCode] + br.read(matchLengthExtraBits[mlCode])
		litLength := literalLengthBaselines[llCode] + br.read(literalLengthExtraBits[llCode])

		seqs[i] = sequence{literalLength: int(litLength), matchLength: int(matchLength), offset: offset}

		if i < numSeq-1 {
			llState.update(br)
			mlState.update(br)
			ofState.update(br)
		}
	}

	if br.bitsRemaining() != 0 {
		return nil, fmt.Errorf("sequences: bitstream did not end at bit 0: %w", ErrBitstreamDesync)
	}

	return seqs, nil
}

// applySeqTable decodes one of the three per-component table modes and
// updates *table accordingly, returning the unconsumed remainder of src.
func applySeqTable(src []byte, table **fseTable, mode byte, predefinedDist []int16, predefinedAccuracy, maxAccuracy int) ([]byte, error) {
	switch mode {
	case seqModePredefined:
		t, err := buildFSETable(predefinedDist, predefinedAccuracy)
		if err != nil {
			return nil, err
		}
		*table = t
		return src, nil
	case seqModeRLE:
		if len(src) < 1 {
			return nil, ErrInputTruncated
		}
		*table = newRLEFSETable(src[0])
		return src[1:], nil
	case seqModeFSE:
		t, consumed, err := decodeFSEHeader(src, maxAccuracy)
		if err != nil {
			return nil, err
		}
		*table = t
		return src[consumed:], nil
	case seqModeRepeat:
		if *table == nil {
			return nil, fmt.Errorf("repeat mode with no prior table: %w", ErrTableMalformed)
		}
		return src, nil
	default:
		panic("unreachable sequence mode")
	}
}
