package zstd

import "testing"

func TestPredefinedTablesBuild(t *testing.T) {
	for name, fn := range map[string]func() (*fseTable, error){
		"literal-length": predefinedLiteralLengthTable,
		"offset":         predefinedOffsetTable,
		"match-length":   predefinedMatchLengthTable,
	} {
		table, err := fn()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(table.entries) != 1<<uint(table.accuracyLog) {
			t.Fatalf("%s: table has %d entries, want %d", name, len(table.entries), 1<<uint(table.accuracyLog))
		}
	}
}

func TestBuildFSETableRejectsShortPlacement(t *testing.T) {
	// Frequencies summing to less than the table size never return to
	// position 0, so the stepping walk must report a malformed table
	// instead of silently leaving unfilled slots.
	freqs := []int16{1, 1} // sums to 2, table size 1<<5 = 32
	if _, err := buildFSETable(freqs, 5); err == nil {
		t.Fatal("expected an error for frequencies that don't sum to table size")
	}
}

func TestNewRLEFSETable(t *testing.T) {
	table := newRLEFSETable(42)
	if len(table.entries) != 1 {
		t.Fatalf("RLE table has %d entries, want 1", len(table.entries))
	}
	if table.entries[0].symbol != 42 || table.entries[0].bits != 0 {
		t.Fatalf("RLE table entry = %+v", table.entries[0])
	}
}

func TestFSEStateRoundTripsThroughRLETable(t *testing.T) {
	table := newRLEFSETable(7)
	// A single-entry table consumes zero bits per state transition, so any
	// reverse bit reader (even one with nothing but the padding sentinel)
	// suffices to exercise peekSymbol/update.
	br, err := newReverseBitReader([]byte{0x01})
	if err != nil {
		t.Fatal(err)
	}
	state := newFSEState(table, br)
	for i := 0; i < 5; i++ {
		if sym := state.peekSymbol(); sym != 7 {
			t.Fatalf("iteration %d: symbol = %d, want 7", i, sym)
		}
		state.update(br)
	}
}

func TestBuildFSETableWithLowProbabilitySymbol(t *testing.T) {
	// A -1 frequency marks a low-probability symbol: it claims exactly one
	// slot at the top of the table, reserved before the stepping walk
	// places every positive-frequency symbol.
	freqs := []int16{16, 15, -1} // sums to 32 once -1 contributes 1
	table, err := buildFSETable(freqs, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.entries) != 32 {
		t.Fatalf("table has %d entries, want 32", len(table.entries))
	}
	var sawLowProb bool
	for _, e := range table.entries {
		if e.symbol == 2 {
			sawLowProb = true
		}
	}
	if !sawLowProb {
		t.Fatal("low-probability symbol 2 never appears in the table")
	}
}
