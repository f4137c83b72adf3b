// Package bitio implements the MSB-first bit-stream reader shared by every
// LHA/LZH decoder: a left-justified shift buffer refilled one byte at a
// time from an underlying io.Reader.
package bitio

import (
	"io"

	"github.com/ossyrian/amilha/internal/lhaerr"
)

// ErrUnexpectedEOF is returned when the underlying byte source is
// exhausted before the requested number of bits could be produced. It is
// the same sentinel Reader/DecodeReader surface as amilha.ErrUnexpectedEOF,
// so a caller can classify it with errors.Is regardless of which layer of
// the decode pipeline hit end of input.
var ErrUnexpectedEOF = lhaerr.ErrUnexpectedEOF

// Reader consumes bytes from an underlying io.Reader as an MSB-first bit
// stream. Bits are read from each consecutive byte starting at its
// highest bit.
type Reader struct {
	src      io.Reader
	buf      uint32 // left-justified: the top nbits bits are valid
	nbits    uint
	consumed int64
	byteBuf  [1]byte
}

// New wraps r as a bit-oriented reader.
func New(r io.Reader) *Reader {
	return &Reader{src: r}
}

// Reset rebinds the reader to a new underlying byte source, discarding any
// buffered bits and the consumed-byte count, so one Reader value can be
// reused across byte sources.
func (r *Reader) Reset(src io.Reader) {
	r.src = src
	r.buf = 0
	r.nbits = 0
	r.consumed = 0
}

func (r *Reader) ensure(n uint) error {
	for r.nbits < n {
		nr, err := r.src.Read(r.byteBuf[:])
		if nr == 0 {
			if err == nil {
				err = io.EOF
			}
			return ErrUnexpectedEOF
		}
		r.consumed++
		r.buf |= uint32(r.byteBuf[0]) << (24 - r.nbits)
		r.nbits += 8
	}
	return nil
}

// Peek returns the top n unread bits (1 <= n <= 16) without consuming them.
func (r *Reader) Peek(n uint) (uint16, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 16 {
		panic("bitio: Peek: n must be <= 16")
	}
	if err := r.ensure(n); err != nil {
		return 0, err
	}
	return uint16(r.buf >> (32 - n)), nil
}

// Skip advances the stream by n bits (1 <= n <= 16), consuming from the
// underlying source as necessary.
func (r *Reader) Skip(n uint) error {
	if n == 0 {
		return nil
	}
	if n > 16 {
		panic("bitio: Skip: n must be <= 16")
	}
	if err := r.ensure(n); err != nil {
		return err
	}
	r.buf <<= n
	r.nbits -= n
	return nil
}

// Read peeks n bits then consumes them.
func (r *Reader) Read(n uint) (uint16, error) {
	v, err := r.Peek(n)
	if err != nil {
		return 0, err
	}
	if err := r.Skip(n); err != nil {
		return 0, err
	}
	return v, nil
}

// PeekPadded returns the top n unread bits (1 <= n <= 16) without
// consuming them, treating bits past the true end of the underlying byte
// source as zero instead of erroring. Huffman symbol lookahead uses this:
// a valid stream never needs real bits past its last code, so padding
// lets the final code of a block decode without an artificial EOF.
func (r *Reader) PeekPadded(n uint) uint16 {
	if n == 0 {
		return 0
	}
	if n > 16 {
		panic("bitio: PeekPadded: n must be <= 16")
	}
	for r.nbits < n {
		nr, _ := r.src.Read(r.byteBuf[:])
		if nr == 0 {
			r.nbits = n
			break
		}
		r.consumed++
		r.buf |= uint32(r.byteBuf[0]) << (24 - r.nbits)
		r.nbits += 8
	}
	return uint16(r.buf >> (32 - n))
}

// ReadBit reads a single bit as a boolean.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.Read(1)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// AlignToByte drops any bits buffered past the current byte boundary,
// re-synchronizing the reader with the underlying byte source. Required
// between independently-framed blocks by some decoders.
func (r *Reader) AlignToByte() {
	drop := r.nbits % 8
	r.buf <<= drop
	r.nbits -= drop
}

// BytesConsumed returns the count of bytes fully or partially consumed
// from the underlying byte source so far.
func (r *Reader) BytesConsumed() int64 {
	return r.consumed
}
