// Package decode implements the per-method streaming decoders: stored
// passthrough, the lh1 adaptive-Huffman method, the lhv2 block-structured
// static-Huffman family shared by lh4/5/6/7 and lhx, and the LZSS -lzs-/
// -lz5- variants.
package decode

import (
	"io"

	"github.com/ossyrian/amilha/internal/bitio"
	"github.com/ossyrian/amilha/internal/lhaerr"
)

// ErrUnsupportedMethod is returned by decoders built under a compile-time
// configuration that excludes them (see the nolh1/nolhx build tags), and by
// New for a method tag that doesn't name a supported algorithm. It is the
// same sentinel amilha.ErrUnsupportedMethod wraps.
var ErrUnsupportedMethod = lhaerr.ErrUnsupportedMethod

// Decoder fills buf completely with decoded plaintext, advancing its
// internal bit position and ring window. Decoders never return fewer
// bytes than requested without an error; io.EOF signals the clean
// zero-length-block termination of an empty lhv2-framed member.
type Decoder interface {
	FillBuffer(buf []byte) error
}

// New builds the Decoder for the given method tag, reading compressed
// bytes from body. The method tag is the 5-byte ASCII string found in a
// header's compression-method field, e.g. "-lh5-".
func New(method [5]byte, body io.Reader) (Decoder, error) {
	switch string(method[:]) {
	case "-lhd-":
		// Directory entries carry no body; Stored degenerates to a
		// zero-length passthrough that never gets asked to fill a buffer.
		return NewStored(body), nil
	case "-lz4-", "-lh0-", "-pm0-":
		return NewStored(body), nil
	case "-lzs-":
		return NewLzs(bitio.New(body)), nil
	case "-lz5-":
		return NewLz5(body), nil
	case "-lh1-":
		return NewLh1(bitio.New(body))
	case "-lh4-":
		return NewLh4(bitio.New(body)), nil
	case "-lh5-":
		return NewLh5(bitio.New(body)), nil
	case "-lh6-":
		return NewLh6(bitio.New(body)), nil
	case "-lh7-":
		return NewLh7(bitio.New(body)), nil
	case "-lhx-":
		return NewLhx(bitio.New(body))
	default:
		return nil, ErrUnsupportedMethod
	}
}
