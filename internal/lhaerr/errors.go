// Package lhaerr defines the error kinds an LHA/LZH archive reader
// surfaces to its caller, as sentinel values other packages wrap with
// fmt.Errorf's %w so callers can classify a failure with errors.Is
// regardless of which component produced it.
package lhaerr

import "errors"

var (
	// ErrUnexpectedEOF means the underlying byte source was exhausted
	// mid-structure: inside a header, a compressed block, or before a
	// member's declared content was fully read.
	ErrUnexpectedEOF = errors.New("lha: unexpected end of input")

	// ErrHeaderChecksum means a level 0/1 header's 8-bit additive
	// checksum, or a level 2/3 header's CRC-16, did not match the value
	// recorded in the header.
	ErrHeaderChecksum = errors.New("lha: header checksum mismatch")

	// ErrMalformedHeader means the header's extended-header walk
	// overran its declared bounds, or some other field combination the
	// format forbids was encountered.
	ErrMalformedHeader = errors.New("lha: malformed header")

	// ErrUnsupportedMethod means a header's method tag names a
	// compression method this build has no decoder for.
	ErrUnsupportedMethod = errors.New("lha: unsupported compression method")

	// ErrMalformedTree means a Huffman code-length table does not
	// describe a valid canonical code: it either leaves part of the
	// code space unused or claims more of it than exists.
	ErrMalformedTree = errors.New("lha: malformed huffman code-length table")

	// ErrInvalidOffset means a decoder's match distance was zero or
	// negative. A distance reaching back past the bytes written so far
	// reads the window's fill byte and is not reported.
	ErrInvalidOffset = errors.New("lha: invalid back-reference offset")

	// ErrContentChecksum means a member decoded without a structural
	// error, but its CRC-16/ARC did not match the header's recorded
	// value.
	ErrContentChecksum = errors.New("lha: content checksum mismatch")

	// ErrSizeMismatch means a decoder produced a different number of
	// plaintext bytes than the header's original_size. The number of
	// compressed bytes a decoder consumed is not compared with
	// compressed_size.
	ErrSizeMismatch = errors.New("lha: decoded/declared size mismatch")

	// ErrIO wraps any error from the underlying byte source that isn't
	// itself an unexpected-EOF condition.
	ErrIO = errors.New("lha: i/o error")
)
