package zstd

import "errors"

// Sentinel errors for the decoder's flat error taxonomy. Every failure the
// decoder core can produce is one of these, returned bare or wrapped with
// context via fmt.Errorf("%w", ...), so callers can test with errors.Is.
var (
	ErrInputTruncated     = errors.New("zstd: input truncated")
	ErrOutputInsufficient = errors.New("zstd: output buffer too small")
	ErrBadMagic           = errors.New("zstd: bad magic number")
	ErrReservedFieldSet   = errors.New("zstd: reserved field set")
	ErrTableMalformed     = errors.New("zstd: entropy table malformed")
	ErrBitstreamDesync    = errors.New("zstd: bitstream did not end where expected")
	ErrOffsetInvalid      = errors.New("zstd: back-reference offset invalid")
	ErrSizeInvalid        = errors.New("zstd: size field out of range")
	ErrChecksumMismatch   = errors.New("zstd: content checksum mismatch")
	ErrUnknownDictionary  = errors.New("zstd: frame references an unknown dictionary id")
)
