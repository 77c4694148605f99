package zstd

import "fmt"

// resolveOffset turns a sequence's raw offset field into an effective
// back-reference distance, consulting and mutating the frame's 3-slot
// repeat-offset history per the index rules the format defines for raw
// values 1-3.
func resolveOffset(h *[3]uint64, seq sequence) (uint64, error) {
	var offset uint64
	if seq.offset <= 3 {
		idx := seq.offset
		if seq.literalLength == 0 {
			idx++
		}
		if idx == 1 {
			offset = h[0]
		} else {
			if idx < 4 {
				offset = h[idx-1]
			} else {
				if h[0] == 0 {
					return 0, fmt.Errorf("repeat offset underflow: %w", ErrOffsetInvalid)
				}
				offset = h[0] - 1
			}
			if idx > 2 {
				h[2] = h[1]
			}
			h[1] = h[0]
			h[0] = offset
		}
	} else {
		offset = seq.offset - 3
		h[2] = h[1]
		h[1] = h[0]
		h[0] = offset
	}
	if offset < 1 {
		return 0, fmt.Errorf("repeat offset resolved to zero: %w", ErrOffsetInvalid)
	}
	return offset, nil
}

// executeSequences replays literals and back-reference copies against dst,
// which already holds every byte emitted so far in the whole decode call
// (across every frame). Back-references are bounded to the current frame's
// own output plus, while within window_size of frame start, the
// dictionary's content — never into a prior frame's bytes.
func executeSequences(dst []byte, literals []byte, seqs []sequence, ctx *frameContext) ([]byte, error) {
	dictContent := ctx.dictContent()

	for _, seq := range seqs {
		if seq.literalLength > len(literals) {
			return nil, fmt.Errorf("sequence literal length exceeds remaining literals: %w", ErrSizeInvalid)
		}
		dst = append(dst, literals[:seq.literalLength]...)
		literals = literals[seq.literalLength:]
		ctx.cumulativeOutput += uint64(seq.literalLength)

		offset, err := resolveOffset(&ctx.offsetHistory, seq)
		if err != nil {
			return nil, err
		}

		matchLength := seq.matchLength
		if ctx.cumulativeOutput <= ctx.windowSize {
			dictLen := uint64(len(dictContent))
			if offset > ctx.cumulativeOutput+dictLen {
				return nil, fmt.Errorf("offset %d exceeds output+dictionary bound: %w", offset, ErrOffsetInvalid)
			}
			if offset > ctx.cumulativeOutput {
				dictCopy := offset - ctx.cumulativeOutput
				if uint64(matchLength) < dictCopy {
					dictCopy = uint64(matchLength)
				}
				dictOffset := dictLen - (offset - ctx.cumulativeOutput)
				dst = append(dst, dictContent[dictOffset:dictOffset+dictCopy]...)
				matchLength -= int(dictCopy)
			}
		} else if offset > ctx.windowSize {
			return nil, fmt.Errorf("offset %d exceeds window size %d: %w", offset, ctx.windowSize, ErrOffsetInvalid)
		}

		// Byte-by-byte: match_length can exceed offset, so a bulk copy that
		// assumes non-overlapping source and destination would be wrong.
		for i := 0; i < matchLength; i++ {
			dst = append(dst, dst[len(dst)-int(offset)])
		}
		ctx.cumulativeOutput += uint64(seq.matchLength)
	}

	if len(literals) > 0 {
		dst = append(dst, literals...)
		ctx.cumulativeOutput += uint64(len(literals))
	}

	return dst, nil
}
