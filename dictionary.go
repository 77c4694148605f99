package zstd

import (
	"encoding/binary"
	"fmt"
)

// Dictionary holds the entropy tables and content window produced by a
// zstd dictionary, usable to decode frames that reference it by id.
//
// Two shapes exist on the wire. A "formatted" dictionary starts with magic
// number dictionaryMagic, a 4-byte dictionary id, entropy table
// descriptions for Huffman literals and the three FSE sequence components,
// a starting repeat-offset history, and finally raw content bytes. Any
// other byte string — including one that merely happens to start with a
// different 4 bytes — is treated as "raw content": no tables, no id, used
// only as history for back-references.
type Dictionary struct {
	id        uint32
	formatted bool
	content   []byte

	offsetHistory [3]uint64
	literalsTable *huffTable
	llTable       *fseTable
	ofTable       *fseTable
	mlTable       *fseTable
}

// NewDictionary parses raw dictionary bytes, as produced by zstd --train or
// embedded in an application, into a Dictionary ready to pass to
// DecompressWithDict or WithDictionary.
func NewDictionary(raw []byte) (*Dictionary, error) {
	if len(raw) < 8 || binary.LittleEndian.Uint32(raw) != dictionaryMagic {
		return &Dictionary{content: raw}, nil
	}

	d := &Dictionary{
		formatted: true,
		id:        binary.LittleEndian.Uint32(raw[4:8]),
	}
	pos := 8

	huffTable, consumed, err := decodeHuffmanTableDescription(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("dictionary: literals table: %w", err)
	}
	d.literalsTable = huffTable
	pos += consumed

	for _, dst := range []struct {
		table       **fseTable
		maxAccuracy int
	}{
		{&d.ofTable, maxAccuracyOffset},
		{&d.mlTable, maxAccuracyMatchLength},
		{&d.llTable, maxAccuracyLiteralLength},
	} {
		t, n, err := decodeFSEHeader(raw[pos:], dst.maxAccuracy)
		if err != nil {
			return nil, fmt.Errorf("dictionary: sequence table: %w", err)
		}
		*dst.table = t
		pos += n
	}

	if len(raw) < pos+12 {
		return nil, fmt.Errorf("dictionary: truncated repeat-offset history: %w", ErrInputTruncated)
	}
	d.offsetHistory[0] = uint64(binary.LittleEndian.Uint32(raw[pos:]))
	d.offsetHistory[1] = uint64(binary.LittleEndian.Uint32(raw[pos+4:]))
	d.offsetHistory[2] = uint64(binary.LittleEndian.Uint32(raw[pos+8:]))
	pos += 12

	if d.offsetHistory[0] == 0 || d.offsetHistory[1] == 0 || d.offsetHistory[2] == 0 {
		return nil, fmt.Errorf("dictionary: repeat-offset history contains zero: %w", ErrTableMalformed)
	}

	d.content = raw[pos:]
	return d, nil
}
