// Package amilha reads LHA/LZH archives: the classic MS-DOS/Unix
// container format built from a chain of per-member headers, each
// followed by that member's compressed bytes.
//
// A Reader walks the archive one member at a time. Call NextMember to
// advance to (and parse the header of) the next entry, then Read to pull
// its decompressed content; NextMember implicitly discards whatever of
// the current member's content was not read.
package amilha

import (
	"errors"
	"fmt"
	"io"

	"github.com/ossyrian/amilha/internal/crc16"
	"github.com/ossyrian/amilha/internal/decode"
	"github.com/ossyrian/amilha/internal/header"
	"github.com/ossyrian/amilha/internal/lhaerr"
	"github.com/ossyrian/amilha/internal/types"
)

// Re-exported error kinds, so callers can classify a failure with
// errors.Is without importing the internal package themselves.
var (
	ErrUnexpectedEOF     = lhaerr.ErrUnexpectedEOF
	ErrHeaderChecksum    = lhaerr.ErrHeaderChecksum
	ErrMalformedHeader   = lhaerr.ErrMalformedHeader
	ErrUnsupportedMethod = lhaerr.ErrUnsupportedMethod
	ErrMalformedTree     = lhaerr.ErrMalformedTree
	ErrInvalidOffset     = lhaerr.ErrInvalidOffset
	ErrContentChecksum   = lhaerr.ErrContentChecksum
	ErrSizeMismatch      = lhaerr.ErrSizeMismatch
	ErrIO                = lhaerr.ErrIO
)

// Header is the parsed metadata of one archive member.
type Header = types.Header

// Reader pulls successive members out of an LHA/LZH archive.
type Reader struct {
	src io.Reader

	header   *Header
	body     *io.LimitedReader // capped at the current member's compressed_size
	decoder  decode.Decoder
	produced uint64 // plaintext bytes handed to the caller for the current member
	crc      crc16.Hasher

	done bool
}

// Open begins reading an archive from src. The first member is not read
// until the first call to NextMember.
func Open(src io.Reader) *Reader {
	return &Reader{src: src}
}

// NextMember discards whatever remains unread of the current member (if
// any), parses the next header, and makes it the current member. It
// returns (nil, nil) once the archive is exhausted.
func (r *Reader) NextMember() (*Header, error) {
	if r.done {
		return nil, nil
	}
	if r.header != nil {
		if err := r.discardRemainder(); err != nil {
			return nil, err
		}
	}

	h, err := header.Parse(r.src)
	if err != nil {
		r.done = true
		return nil, err
	}
	if h == nil {
		r.done = true
		r.header = nil
		return nil, nil
	}

	r.header = h
	r.body = nil
	r.decoder = nil
	r.produced = 0
	r.crc.Reset()
	return h, nil
}

// discardRemainder drives the current member's decode to completion (if
// not already done) and then drains whatever compressed bytes the
// decoder left unconsumed -- trailing alignment padding a decoder has no
// reason to read -- so the underlying stream ends up positioned exactly
// at the next header, matching the original reader's discard-to-end
// behavior on advance.
func (r *Reader) discardRemainder() error {
	if r.header.IsDirectory() {
		return nil
	}
	r.ensureBody()
	var buf [32 * 1024]byte
	for {
		_, err := r.Read(buf[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	if _, err := io.Copy(io.Discard, r.body); err != nil {
		return fmt.Errorf("amilha: member %q: %w", r.header.PathString(), err)
	}
	return nil
}

// ensureBody lazily caps r.src to the current member's compressed_size,
// so neither the decoder nor a later drain can read past this member's
// content into the next header.
func (r *Reader) ensureBody() {
	if r.body == nil {
		r.body = &io.LimitedReader{R: r.src, N: int64(r.header.CompressedSize)}
	}
}

// Header returns the currently selected member's header, or nil before
// the first call to NextMember or after the archive is exhausted.
func (r *Reader) Header() *Header { return r.header }

// IsSupported reports whether the current member's compression method
// has a decoder in this build. Directory entries and the stored/lz4/pm0
// passthrough methods are always supported.
func (r *Reader) IsSupported() bool {
	if r.header == nil {
		return false
	}
	_, err := decode.New(r.header.Method, eofReader{})
	return err == nil
}

// classifyDecodeErr maps a decoder's underlying I/O error onto the
// package's own ErrUnexpectedEOF sentinel when it isn't already one of
// this module's typed errors, so a caller can classify any exhausted-
// input failure with errors.Is(err, amilha.ErrUnexpectedEOF) regardless
// of whether a Huffman/LZSS decoder's own bitio.Reader detected the
// shortfall or a stored-method decoder's plain io.ReadFull did. Read only
// calls FillBuffer with a positive want, so a decoder's own io.EOF (its
// documented signal for an empty lhv2-framed member) can never reach here
// legitimately either: any io.EOF this far in is the same premature
// end-of-stream as io.ErrUnexpectedEOF.
func classifyDecodeErr(err error) error {
	if errors.Is(err, ErrUnexpectedEOF) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrUnexpectedEOF, err)
	}
	return err
}

// eofReader is an io.Reader that always reports a clean EOF, used by
// IsSupported to probe decode.New's method dispatch without consuming
// any real archive bytes.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// Read decodes and returns up to len(p) bytes of the current member's
// content, feeding every byte through the running CRC-16/ARC so a final
// Verify call can check it against the header's recorded checksum. It
// returns io.EOF once the member's full original_size has been produced.
func (r *Reader) Read(p []byte) (int, error) {
	if r.header == nil {
		return 0, io.EOF
	}
	if r.header.IsDirectory() || r.produced >= r.header.OriginalSize {
		return 0, io.EOF
	}

	if r.decoder == nil {
		r.ensureBody()
		dec, err := decode.New(r.header.Method, r.body)
		if err != nil {
			return 0, fmt.Errorf("amilha: member %q: %w", r.header.PathString(), err)
		}
		r.decoder = dec
	}

	want := uint64(len(p))
	if remaining := r.header.OriginalSize - r.produced; want > remaining {
		want = remaining
	}
	if want == 0 {
		return 0, io.EOF
	}

	if err := r.decoder.FillBuffer(p[:want]); err != nil {
		// A decoder's own io.EOF ("clean zero-length-block termination of
		// an empty lhv2-framed member", per decode.Decoder) can never
		// legitimately reach here: the produced >= OriginalSize check at
		// the top of Read already returns before constructing a decoder for
		// a member whose original_size is 0. Any io.EOF this far in means the compressed
		// stream ran out before original_size bytes were produced, the
		// same shortfall bitio's own ErrUnexpectedEOF reports.
		return 0, fmt.Errorf("amilha: member %q: %w", r.header.PathString(), classifyDecodeErr(err))
	}
	r.crc.Write(p[:want])
	r.produced += want
	return int(want), nil
}

// Verify reads and discards whatever remains of the current member, then
// reports whether its decoded content matched both the header's declared
// original_size and its CRC-16/ARC checksum.
func (r *Reader) Verify() error {
	if r.header == nil {
		return fmt.Errorf("amilha: Verify called with no current member")
	}
	if r.header.IsDirectory() {
		return nil
	}
	var buf [32 * 1024]byte
	for {
		_, err := r.Read(buf[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	if r.produced != r.header.OriginalSize {
		return fmt.Errorf("%w: member %q: decoded %d bytes, header declares %d",
			ErrSizeMismatch, r.header.PathString(), r.produced, r.header.OriginalSize)
	}
	if r.crc.Sum16() != r.header.FileCRC16 {
		return fmt.Errorf("%w: member %q: decoded crc %#04x, header declares %#04x",
			ErrContentChecksum, r.header.PathString(), r.crc.Sum16(), r.header.FileCRC16)
	}
	return nil
}
