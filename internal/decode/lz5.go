package decode

import (
	"io"

	"github.com/ossyrian/amilha/internal/ringbuf"
)

const lz5WindowSize = 4096

// newLz5Window builds the canonical LHarc pre-fill table: each byte value
// repeated 13 times, then an ascending run, a descending run, a block of
// zeroes, a gap left at the window's default fill, and a final margin of
// zeroes -- with the write cursor left at the traditional start offset.
func newLz5Window() *ringbuf.Window {
	win := ringbuf.New(lz5WindowSize, 0x20)
	for i := 0; i < 256; i++ {
		for n := 0; n < 13; n++ {
			win.Push(byte(i))
		}
	}
	for i := 0; i < 256; i++ {
		win.Push(byte(i))
	}
	for i := 255; i >= 0; i-- {
		win.Push(byte(i))
	}
	for n := 0; n < 128; n++ {
		win.Push(0)
	}
	win.Seek(lz5WindowSize - 18)
	for win.Pos() != 0 {
		win.Push(0)
	}
	win.Seek(lz5WindowSize - 18)
	return win
}

// Lz5 decodes the -lz5- method: an 8-flag-per-byte bitmap over a
// 4096-byte window, literals read raw and matches encoded as a 12-bit
// absolute window position plus a 4-bit (length-3) field. Unlike every
// other decoder here, -lz5- is byte-oriented, not bit-oriented: it reads
// straight from the underlying byte source.
type Lz5 struct {
	src    io.Reader
	win    *ringbuf.Window
	bitmap uint16

	copyActive    bool
	copyPos       int
	copyRemaining int
}

// NewLz5 builds a decoder for the -lz5- method.
func NewLz5(src io.Reader) *Lz5 {
	return &Lz5{src: src, win: newLz5Window(), bitmap: 1}
}

func (d *Lz5) FillBuffer(buf []byte) error {
	i := 0
	if d.copyActive {
		n := d.copyRemaining
		if n > len(buf) {
			n = len(buf)
		}
		d.win.CopyFromPos(buf[:n], d.copyPos)
		d.copyPos += n
		i = n
		d.copyRemaining -= n
		if d.copyRemaining == 0 {
			d.copyActive = false
		}
	}

	bitmap := d.bitmap
	var one [1]byte
	var two [2]byte
	for i < len(buf) {
		if bitmap == 1 {
			if _, err := io.ReadFull(d.src, one[:]); err != nil {
				return err
			}
			bitmap = uint16(one[0]) | 0x0100
		}

		if bitmap&1 == 1 {
			if _, err := io.ReadFull(d.src, one[:]); err != nil {
				return err
			}
			b := one[0]
			d.win.Push(b)
			buf[i] = b
			i++
		} else {
			if _, err := io.ReadFull(d.src, two[:]); err != nil {
				return err
			}
			lo, hi := two[0], two[1]
			pos := (int(hi&0xF0) << 4) | int(lo)
			count := int(hi&0x0F) + 3

			n := count
			if i+n > len(buf) {
				n = len(buf) - i
			}
			d.win.CopyFromPos(buf[i:i+n], pos)
			i += n
			if n < count {
				d.copyActive = true
				d.copyPos = pos + n
				d.copyRemaining = count - n
			}
		}

		bitmap >>= 1
	}
	d.bitmap = bitmap
	return nil
}
