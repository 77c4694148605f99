package zstd

import "testing"

func TestBuildHuffTableFromCodeLengthsTiling(t *testing.T) {
	// Three symbols: one at depth 1, two at depth 2 — a valid Kraft-equal
	// code (1/2 + 1/4 + 1/4 = 1).
	codeLen := []uint8{1, 2, 2}
	table, err := buildHuffTableFromCodeLengths(codeLen, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.entries) != 4 {
		t.Fatalf("table has %d entries, want 4", len(table.entries))
	}
	// Longest codes are placed first: symbols 1 and 2 (depth 2) take one
	// slot each at the front, in ascending order, and symbol 0 (depth 1)
	// occupies the second half of the table.
	if table.entries[2].symbol != 0 || table.entries[3].symbol != 0 {
		t.Fatalf("symbol 0 does not occupy the second half: %+v", table.entries[2:])
	}
	if table.entries[2].bits != 1 {
		t.Fatalf("symbol 0 bits = %d, want 1", table.entries[2].bits)
	}
	if table.entries[0].symbol != 1 || table.entries[1].symbol != 2 {
		t.Fatalf("symbols 1,2 not placed first in ascending order: %+v", table.entries[:2])
	}
}

func TestBuildHuffTableFromCodeLengthsRejectsUnbalancedTree(t *testing.T) {
	// Single symbol at depth 2 only covers 1/4 of the table: invalid.
	codeLen := []uint8{2}
	if _, err := buildHuffTableFromCodeLengths(codeLen, 2); err == nil {
		t.Fatal("expected an error for code lengths that don't tile the table")
	}
}

func TestBuildHuffTableFromWeightsInfersLastWeight(t *testing.T) {
	// Two explicit weights of 1 (code length maxBits) leave a power-of-two
	// remainder that determines the unsent last symbol's weight.
	table, err := buildHuffTableFromWeights([]byte{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	// weightSum = 2^(1-1) + 2^(1-1) = 2, maxBits = log2(2)+1 = 2,
	// leftover = 4-2 = 2, lastWeight = log2(2)+1 = 2.
	if table.depth != 2 {
		t.Fatalf("depth = %d, want 2", table.depth)
	}
	if len(table.entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(table.entries))
	}
}

func TestHuffTableDecode1XRoundTrip(t *testing.T) {
	// Two symbols, one bit each: 'a' -> 0, 'b' -> 1 (a minimal real code).
	table, err := buildHuffTableFromCodeLengths([]uint8{1, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}

	// The reverse bit reader consumes bits working down from just below the
	// sentinel (the highest set bit). For depth 1 this decoder reads one
	// state bit per symbol: bit 2 picks symbol a (state 0), bit 1 picks
	// symbol b (state 1), bit 0 picks symbol a (state 0) again, and the
	// sentinel itself sits at bit 3.
	b := byte(0b1010)
	out, err := table.decode1X([]byte{b}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 1, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, out[i], want[i], out)
		}
	}
}
