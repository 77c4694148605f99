package zstd

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// verifyChecksum checks a frame's trailing 4-byte content checksum, which
// carries the low 32 bits of the XXH64 hash of the frame's decoded content.
func verifyChecksum(content []byte, want []byte) error {
	sum := xxhash.Sum64(content)
	got := uint32(sum)
	gotLE := uint32(want[0]) | uint32(want[1])<<8 | uint32(want[2])<<16 | uint32(want[3])<<24
	if got != gotLE {
		return fmt.Errorf("got %08x, frame declared %08x: %w", got, gotLE, ErrChecksumMismatch)
	}
	return nil
}
