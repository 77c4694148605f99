package zstd

import "fmt"

const fseMaxSymbols = 256

// fseEntry is one state of a finite-state-entropy decoding table: the
// symbol it emits, how many bits to read from the bitstream to compute the
// next state, and the baseline that those bits are added to.
type fseEntry struct {
	symbol   byte
	bits     uint8
	baseline uint16
}

// fseTable is a flat decoding table of 2^accuracyLog entries, shared
// read-only once built; decoding never mutates it, only the caller's state
// variable and bit cursor advance.
type fseTable struct {
	accuracyLog int
	entries     []fseEntry
}

// newRLEFSETable builds the degenerate 1-entry table used by sequence
// components whose mode byte says "RLE": always the same symbol, no bits
// consumed, accuracy log 0.
func newRLEFSETable(symbol byte) *fseTable {
	return &fseTable{
		accuracyLog: 0,
		entries:     []fseEntry{{symbol: symbol, bits: 0, baseline: 0}},
	}
}

// buildFSETable turns a normalized frequency table (positive counts, or -1
// for the low-probability class) into a decode table, following the
// stepping-walk placement the format requires: -1 symbols claim the top of
// the table first, then every other symbol's states are scattered by a
// step coprime with the table size so each of its `freq` states lands on a
// distinct, still-free slot.
func buildFSETable(freqs []int16, accuracyLog int) (*fseTable, error) {
	if len(freqs) > fseMaxSymbols {
		return nil, fmt.Errorf("fse table: too many symbols: %w", ErrSizeInvalid)
	}
	size := 1 << uint(accuracyLog)
	symbols := make([]byte, size)
	stateDesc := make([]uint16, len(freqs))

	highThreshold := size
	for s, f := range freqs {
		if f == -1 {
			highThreshold--
			symbols[highThreshold] = byte(s)
			stateDesc[s] = 1
		}
	}

	step := (size >> 1) + (size >> 3) + 3
	mask := size - 1
	pos := 0
	for s, f := range freqs {
		if f <= 0 {
			continue
		}
		stateDesc[s] = uint16(f)
		for i := 0; i < int(f); i++ {
			symbols[pos] = byte(s)
			for {
				pos = (pos + step) & mask
				if pos < highThreshold {
					break
				}
			}
		}
	}
	if pos != 0 {
		return nil, fmt.Errorf("fse table: placement did not return to origin: %w", ErrTableMalformed)
	}

	entries := make([]fseEntry, size)
	for i := 0; i < size; i++ {
		sym := symbols[i]
		nextStateDesc := stateDesc[sym]
		stateDesc[sym]++
		bits := accuracyLog - log2inf(int(nextStateDesc))
		baseline := (nextStateDesc << uint(bits)) - uint16(size)
		entries[i] = fseEntry{symbol: sym, bits: uint8(bits), baseline: baseline}
	}

	return &fseTable{accuracyLog: accuracyLog, entries: entries}, nil
}

// decodeFSEHeader parses a normalized-count header from src and builds the
// resulting decode table, returning the number of bytes the header
// occupied. maxAccuracyLog is the per-use ceiling (9 for literal/match
// length, 8 for offset, 6 for Huffman weights).
func decodeFSEHeader(src []byte, maxAccuracyLog int) (*fseTable, int, error) {
	if len(src) < 1 {
		return nil, 0, ErrInputTruncated
	}

	accuracyLog := 5 + int(readBitsLE(src, 4, 0))
	if accuracyLog > maxAccuracyLog || accuracyLog < 5 {
		return nil, 0, fmt.Errorf("fse header: accuracy log %d exceeds max %d: %w", accuracyLog, maxAccuracyLog, ErrSizeInvalid)
	}

	remaining := (1 << uint(accuracyLog)) + 1
	freqs := make([]int16, 0, 64)
	offset := 4
	symb := 0

	needBits := func(n int) error {
		if (offset+n+7)/8 > len(src) {
			return ErrInputTruncated
		}
		return nil
	}

	for remaining > 1 && symb < fseMaxSymbols {
		bits := log2inf(remaining) + 1
		if err := needBits(bits); err != nil {
			return nil, 0, err
		}
		val := uint16(readBitsLE(src, bits, offset))
		offset += bits

		lowerMask := uint16(1<<uint(bits-1)) - 1
		threshold := uint16(1<<uint(bits)) - 1 - uint16(remaining)

		if (val & lowerMask) < threshold {
			offset--
			val &= lowerMask
		} else if val > lowerMask {
			val -= threshold
		}

		proba := int16(val) - 1
		if proba < 0 {
			remaining -= int(-proba)
		} else {
			remaining -= int(proba)
		}
		freqs = append(freqs, proba)
		symb++

		if proba == 0 {
			if err := needBits(2); err != nil {
				return nil, 0, err
			}
			repeat := int(readBitsLE(src, 2, offset))
			offset += 2
			for {
				for i := 0; i < repeat && symb < fseMaxSymbols; i++ {
					freqs = append(freqs, 0)
					symb++
				}
				if repeat != 3 {
					break
				}
				if err := needBits(2); err != nil {
					return nil, 0, err
				}
				repeat = int(readBitsLE(src, 2, offset))
				offset += 2
			}
		}
	}

	if remaining != 1 || symb >= fseMaxSymbols {
		return nil, 0, fmt.Errorf("fse header: probabilities did not sum to table size: %w", ErrTableMalformed)
	}

	table, err := buildFSETable(freqs, accuracyLog)
	if err != nil {
		return nil, 0, err
	}
	return table, (offset + 7) / 8, nil
}

// fseState is a live decoder cursor into a table: the current table row
// plus the bit reader it shares with any other interleaved states.
type fseState struct {
	table *fseTable
	state int
}

func newFSEState(table *fseTable, br *reverseBitReader) fseState {
	return fseState{table: table, state: int(br.read(table.accuracyLog))}
}

func (s fseState) peekSymbol() byte {
	return s.table.entries[s.state].symbol
}

func (s *fseState) update(br *reverseBitReader) {
	e := s.table.entries[s.state]
	rest := br.read(int(e.bits))
	s.state = int(e.baseline) + int(rest)
}

// decodeInterleaved2 decodes symbols from two FSE states sharing one
// reverse bitstream, alternating between them, until the bitstream is
// exhausted; the other state then emits one final symbol. dstLen bounds the
// output: decoding fails if a state is due to emit once dstLen symbols are
// already out. This is the scheme used to decompress a Huffman weight table.
func decodeInterleaved2(table *fseTable, src []byte, dstLen int) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrInputTruncated
	}
	br, err := newReverseBitReader(src)
	if err != nil {
		return nil, err
	}

	s1 := newFSEState(table, br)
	s2 := newFSEState(table, br)

	dst := make([]byte, 0, dstLen)
	for {
		if len(dst) >= dstLen {
			return nil, fmt.Errorf("huffman weights: more symbols than expected: %w", ErrOutputInsufficient)
		}
		sym := s1.peekSymbol()
		s1.update(br)
		dst = append(dst, sym)
		if br.bitsRemaining() < 0 {
			dst = append(dst, s2.peekSymbol())
			break
		}

		if len(dst) >= dstLen {
			return nil, fmt.Errorf("huffman weights: more symbols than expected: %w", ErrOutputInsufficient)
		}
		sym = s2.peekSymbol()
		s2.update(br)
		dst = append(dst, sym)
		if br.bitsRemaining() < 0 {
			dst = append(dst, s1.peekSymbol())
			break
		}
	}
	return dst, nil
}

// Predefined FSE distributions, reproduced byte-for-byte from the
// Zstandard format description.
var predefinedLiteralLengthDist = []int16{
	4, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 2, 1, 1, 1, 1, 1,
	-1, -1, -1, -1,
}

var predefinedOffsetDist = []int16{
	1, 1, 1, 1, 1, 1, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	-1, -1, -1, -1, -1,
}

var predefinedMatchLengthDist = []int16{
	1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	-1, -1, -1, -1, -1, -1, -1,
}

const (
	predefinedLiteralLengthAccuracy = 6
	predefinedOffsetAccuracy        = 5
	predefinedMatchLengthAccuracy   = 6
)

func predefinedLiteralLengthTable() (*fseTable, error) {
	return buildFSETable(predefinedLiteralLengthDist, predefinedLiteralLengthAccuracy)
}

func predefinedOffsetTable() (*fseTable, error) {
	return buildFSETable(predefinedOffsetDist, predefinedOffsetAccuracy)
}

func predefinedMatchLengthTable() (*fseTable, error) {
	return buildFSETable(predefinedMatchLengthDist, predefinedMatchLengthAccuracy)
}
