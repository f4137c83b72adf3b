//go:build !nolh1

package decode

import (
	"github.com/ossyrian/amilha/internal/bitio"
	"github.com/ossyrian/amilha/internal/huffman"
	"github.com/ossyrian/amilha/internal/ringbuf"
)

// lh1WindowSize is the size of the -lh1- back-reference window. -lh1- is
// LHarc's original adaptive-Huffman method and predates the larger
// block-structured lhv2 window sizes.
const lh1WindowSize = 4096

// lh1PosLens is the fixed code-length table for -lh1-'s 64-entry static
// position tree, decoding the upper 6 bits of a 12-bit match offset. Unlike
// the literal/length tree, this one is never read from the stream: every
// encoder and decoder builds it from this same compiled-in table.
var lh1PosLens = func() []byte {
	lens := make([]byte, 64)
	lens[0] = 3
	for i := 1; i < 4; i++ {
		lens[i] = 4
	}
	for i := 4; i < 12; i++ {
		lens[i] = 5
	}
	for i := 12; i < 24; i++ {
		lens[i] = 6
	}
	for i := 24; i < 48; i++ {
		lens[i] = 7
	}
	for i := 48; i < 64; i++ {
		lens[i] = 8
	}
	return lens
}()

// Lh1Decoder implements the -lh1- compression method: a single adaptive
// (non-block) Huffman tree over a 314-symbol literal/length alphabet,
// paired with a fixed static Huffman tree over the upper 6 bits of the
// match offset and 6 raw low bits.
type Lh1Decoder struct {
	br   *bitio.Reader
	win  *ringbuf.Window
	tree *lh1Tree
	pos  *huffman.Tree

	copyActive    bool
	copyDistance  int
	copyRemaining int
}

// NewLh1 builds a decoder for the -lh1- method.
func NewLh1(br *bitio.Reader) (*Lh1Decoder, error) {
	posTree, err := huffman.Build(lh1PosLens)
	if err != nil {
		return nil, err
	}
	return &Lh1Decoder{
		br:   br,
		win:  ringbuf.New(lh1WindowSize, 0x20),
		tree: newLh1Tree(),
		pos:  posTree,
	}, nil
}

func (d *Lh1Decoder) FillBuffer(buf []byte) error {
	i := 0
	if d.copyActive {
		n := d.copyRemaining
		if n > len(buf) {
			n = len(buf)
		}
		if err := d.win.CopyTo(buf[:n], d.copyDistance); err != nil {
			return err
		}
		i = n
		d.copyRemaining -= n
		if d.copyRemaining == 0 {
			d.copyActive = false
		}
	}

	for i < len(buf) {
		sym, err := d.tree.decode(d.br)
		if err != nil {
			return err
		}
		if sym < 256 {
			b := byte(sym)
			d.win.Push(b)
			buf[i] = b
			i++
			continue
		}

		offset, err := d.readOffset()
		if err != nil {
			return err
		}
		distance := offset + 1
		length := sym - 253

		n := length
		if i+n > len(buf) {
			n = len(buf) - i
		}
		if err := d.win.CopyTo(buf[i:i+n], distance); err != nil {
			return err
		}
		i += n
		if n < length {
			d.copyActive = true
			d.copyDistance = distance
			d.copyRemaining = length - n
		}
	}
	return nil
}

// readOffset decodes the upper 6 bits of a 12-bit match distance through
// the static position tree, then reads the lower 6 bits raw.
func (d *Lh1Decoder) readOffset() (int, error) {
	high, err := d.pos.Read(d.br)
	if err != nil {
		return 0, err
	}
	low, err := d.br.Read(6)
	if err != nil {
		return 0, err
	}
	return int(high)<<6 | int(low), nil
}
