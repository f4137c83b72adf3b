// Package ringbuf implements the fixed-capacity, power-of-two circular
// byte buffer ("sliding window") that every LHA/LZH decoder uses as its
// LZSS back-reference dictionary.
package ringbuf

import "github.com/ossyrian/amilha/internal/lhaerr"

// ErrInvalidOffset is returned by Copy/CopyTo when asked to copy from a
// non-positive (pre-stream) distance. It is the same sentinel
// amilha.ErrInvalidOffset wraps.
var ErrInvalidOffset = lhaerr.ErrInvalidOffset

// Window is a fixed-capacity circular buffer of the most recently emitted
// plaintext bytes. Positions beyond what has actually been written but
// within capacity read back as the window's fill byte.
type Window struct {
	buf     []byte
	mask    int
	pos     int
	emitted int64
}

// New creates a Window of the given power-of-two capacity, its entire
// extent pre-filled with fill (every decoder in internal/decode, lh1
// included, passes 0x20).
func New(capacity int, fill byte) *Window {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ringbuf: capacity must be a power of two")
	}
	buf := make([]byte, capacity)
	for i := range buf {
		buf[i] = fill
	}
	return &Window{buf: buf, mask: capacity - 1}
}

// Cap returns the window's capacity in bytes.
func (w *Window) Cap() int { return len(w.buf) }

// Len returns the number of bytes genuinely written so far, capped at the
// window's capacity.
func (w *Window) Len() int64 {
	if w.emitted > int64(len(w.buf)) {
		return int64(len(w.buf))
	}
	return w.emitted
}

// Push appends a single byte, overwriting the oldest one once full.
func (w *Window) Push(b byte) {
	w.buf[w.pos&w.mask] = b
	w.pos++
	w.emitted++
}

// Copy writes length bytes from distance bytes behind the write cursor
// (1-based: distance 1 means "the last byte written") back into the
// window, each freshly-written byte immediately visible to later bytes of
// the same call -- the LZSS self-overlapping copy semantics required for
// run-length matches shorter than their own distance.
func (w *Window) Copy(distance, length int) error {
	if distance < 1 {
		return ErrInvalidOffset
	}
	for i := 0; i < length; i++ {
		w.Push(w.buf[(w.pos-distance)&w.mask])
	}
	return nil
}

// CopyTo behaves like Copy but also writes each copied byte into dst,
// letting a decoder emit directly into its caller's output buffer while
// keeping the window's back-reference history current. len(dst) bytes
// are copied.
func (w *Window) CopyTo(dst []byte, distance int) error {
	if distance < 1 {
		return ErrInvalidOffset
	}
	for i := range dst {
		b := w.buf[(w.pos-distance)&w.mask]
		w.Push(b)
		dst[i] = b
	}
	return nil
}

// CopyFromPos copies len(dst) bytes starting at the absolute buffer
// position pos (wrapped to the window's capacity), self-overlapping with
// its own writes. Used by the -lz5- and -lzs- decoders, whose control
// bytes encode an absolute window position rather than a distance
// relative to the write cursor.
func (w *Window) CopyFromPos(dst []byte, pos int) {
	idx := pos & w.mask
	for i := range dst {
		b := w.buf[idx&w.mask]
		w.Push(b)
		dst[i] = b
		idx++
	}
}

// Pos returns the window's current write-cursor position, wrapped to its
// capacity.
func (w *Window) Pos() int { return w.pos & w.mask }

// Seek repositions the write cursor without writing, used to lay out the
// -lz5- decoder's fixed initial dictionary contents around gaps that stay
// at their pre-fill value.
func (w *Window) Seek(pos int) { w.pos = pos }

// Tail returns the last n bytes written to the window, oldest first. It
// exists only to let decoder tests assert on window contents.
func (w *Window) Tail(n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = w.buf[(w.pos-1-i)&w.mask]
	}
	return out
}
