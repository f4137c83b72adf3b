package decode

import (
	"github.com/ossyrian/amilha/internal/bitio"
	"github.com/ossyrian/amilha/internal/ringbuf"
)

const lzsWindowSize = 2048

// Lzs decodes the -lzs- method: a 1-bit flag stream over a 2048-byte
// window, literal bytes read raw and matches encoded as an 11-bit
// absolute window position plus a 4-bit (length-2) field.
type Lzs struct {
	br  *bitio.Reader
	win *ringbuf.Window

	copyActive    bool
	copyPos       int
	copyRemaining int
}

// NewLzs builds a decoder for the -lzs- method.
func NewLzs(br *bitio.Reader) *Lzs {
	win := ringbuf.New(lzsWindowSize, 0x20)
	win.Seek(lzsWindowSize - 17)
	return &Lzs{br: br, win: win}
}

func (d *Lzs) FillBuffer(buf []byte) error {
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

	for i < len(buf) {
		isLiteral, err := d.br.ReadBit()
		if err != nil {
			return err
		}
		if isLiteral {
			v, err := d.br.Read(8)
			if err != nil {
				return err
			}
			b := byte(v)
			d.win.Push(b)
			buf[i] = b
			i++
			continue
		}

		pos, err := d.br.Read(11)
		if err != nil {
			return err
		}
		countField, err := d.br.Read(4)
		if err != nil {
			return err
		}
		count := int(countField) + 2

		n := count
		if i+n > len(buf) {
			n = len(buf) - i
		}
		d.win.CopyFromPos(buf[i:i+n], int(pos))
		i += n
		if n < count {
			d.copyActive = true
			d.copyPos = int(pos) + n
			d.copyRemaining = count - n
		}
	}
	return nil
}
