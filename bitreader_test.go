package zstd

import "testing"

func TestReadBitsLE(t *testing.T) {
	src := []byte{0b1011_0110, 0b0000_0001}
	if got := readBitsLE(src, 4, 0); got != 0b0110 {
		t.Fatalf("low nibble: got %b", got)
	}
	if got := readBitsLE(src, 4, 4); got != 0b1011 {
		t.Fatalf("high nibble: got %b", got)
	}
	if got := readBitsLE(src, 9, 0); got != 0b1_1011_0110 {
		t.Fatalf("cross-byte: got %b", got)
	}
}

func TestLog2Inf(t *testing.T) {
	cases := map[int]int{0: -1, 1: 0, 2: 1, 3: 1, 4: 2, 1023: 9, 1024: 10}
	for n, want := range cases {
		if got := log2inf(n); got != want {
			t.Errorf("log2inf(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestReverseBitReaderBasic(t *testing.T) {
	// Last byte 0b0000_1011: highest set bit is bit 3 (log2inf(11)=3), so
	// padding = 8-3 = 5 bits, leaving bits 3..0 below the sentinel as the
	// first 3 bits of real payload (0b011) plus the sentinel bit itself.
	src := []byte{0xFF, 0b0000_1011}
	br, err := newReverseBitReader(src)
	if err != nil {
		t.Fatal(err)
	}
	// Total bits = 16, padding = 8 - log2inf(0b1011) = 8-3 = 5, so cursor
	// starts at 11.
	if br.bitsRemaining() != 11 {
		t.Fatalf("initial offset = %d, want 11", br.bitsRemaining())
	}
	v := br.read(3)
	if v != 0b011 {
		t.Fatalf("first read = %b, want 011", v)
	}
	if br.bitsRemaining() != 8 {
		t.Fatalf("offset after read = %d, want 8", br.bitsRemaining())
	}
	v = br.read(8)
	if v != 0xFF {
		t.Fatalf("second read = %x, want ff", v)
	}
	if br.bitsRemaining() != 0 {
		t.Fatalf("offset after second read = %d, want 0", br.bitsRemaining())
	}
}

func TestReverseBitReaderZeroFillsPastStart(t *testing.T) {
	src := []byte{0b0000_0001} // sentinel at bit 0, zero padding bits
	br, err := newReverseBitReader(src)
	if err != nil {
		t.Fatal(err)
	}
	if br.bitsRemaining() != 0 {
		t.Fatalf("offset = %d, want 0", br.bitsRemaining())
	}
	if v := br.read(4); v != 0 {
		t.Fatalf("read past start = %d, want 0", v)
	}
	if br.bitsRemaining() != -4 {
		t.Fatalf("offset after overread = %d, want -4", br.bitsRemaining())
	}
}

func TestReverseBitReaderRejectsZeroLastByte(t *testing.T) {
	if _, err := newReverseBitReader([]byte{0x01, 0x00}); err == nil {
		t.Fatal("expected error for zero last byte")
	}
}
