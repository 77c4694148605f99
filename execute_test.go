package zstd

import "testing"

// TestExecuteSequencesRepeatOffsetFromDictionary exercises a frame that
// references a formatted dictionary with prepopulated offset history
// [5,7,11] whose first sequence uses repeat-index 3 (raw offset value 3,
// non-zero literal_length so no index-shift applies): the offset resolves
// to 11, and because one literal byte is emitted first, the match copies
// from dict_content[len-10].
func TestExecuteSequencesRepeatOffsetFromDictionary(t *testing.T) {
	dict := &Dictionary{
		formatted:     true,
		content:       []byte("0123456789ABCDEF"), // len 16
		offsetHistory: [3]uint64{5, 7, 11},
	}
	header := frameHeader{windowSize: 1 << 20}
	ctx := newFrameContext(header, dict)

	if ctx.offsetHistory != [3]uint64{5, 7, 11} {
		t.Fatalf("offset history not seeded from dictionary: %v", ctx.offsetHistory)
	}

	seqs := []sequence{
		{literalLength: 1, matchLength: 4, offset: 3},
	}
	literals := []byte{'X'}

	out, err := executeSequences(nil, literals, seqs, ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The match starts after the literal: dst = "X" (cumulativeOutput = 1),
	// offset=11 > 1, so dictOffset = dictLen - (offset - cumulativeOutput)
	// = 16 - (11-1) = 6, copying dict content [6:6+4] = "6789" (clipped to
	// the 4-byte match length).
	want := "X6789"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}

	// idx==3 with literalLength!=0 does not bump the index, and promotes
	// the resolved offset (11) into slot 0, demoting the rest.
	if ctx.offsetHistory != [3]uint64{11, 5, 7} {
		t.Fatalf("offset history after sequence = %v, want [11,5,7]", ctx.offsetHistory)
	}
}

func TestExecuteSequencesOverlapCopy(t *testing.T) {
	// offset=1, match_length=5: extends the prior byte 5 times.
	ctx := newFrameContext(frameHeader{windowSize: 1 << 20}, nil)
	seqs := []sequence{{literalLength: 1, matchLength: 5, offset: 1}}
	out, err := executeSequences(nil, []byte{'A'}, seqs, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "AAAAAA" {
		t.Fatalf("got %q, want %q", out, "AAAAAA")
	}
}

func TestExecuteSequencesOverlapCopyTriple(t *testing.T) {
	// offset=3, match_length=9: three copies of the prior three bytes. Raw
	// offset values 1-3 are repeat-offset indexes, so a real distance of 3
	// is carried as raw value 3+3 = 6.
	ctx := newFrameContext(frameHeader{windowSize: 1 << 20}, nil)
	seqs := []sequence{{literalLength: 3, matchLength: 9, offset: 6}}
	out, err := executeSequences(nil, []byte("xyz"), seqs, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "xyzxyzxyzxyz" {
		t.Fatalf("got %q, want %q", out, "xyzxyzxyzxyz")
	}
}
