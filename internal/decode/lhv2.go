package decode

import (
	"io"

	"github.com/ossyrian/amilha/internal/bitio"
	"github.com/ossyrian/amilha/internal/huffman"
	"github.com/ossyrian/amilha/internal/ringbuf"
)

const (
	numCommands    = 510
	numTempCodeLen = 19
)

// lhv2Config parametrizes the block decoder for one of -lh4/5/6/7- or
// -lhx-: windowBits is the log2 of the ring window's capacity, offsetBits
// is the bit width of the position tree's code-length count and of each
// raw per-slot length it reads.
type lhv2Config struct {
	windowBits uint
	offsetBits uint
}

var (
	lh4Config = lhv2Config{windowBits: 12, offsetBits: 4}
	lh5Config = lhv2Config{windowBits: 13, offsetBits: 4}
	lh6Config = lhv2Config{windowBits: 15, offsetBits: 5}
	lh7Config = lhv2Config{windowBits: 16, offsetBits: 5}
)

// LhV2Decoder implements the block-structured static-Huffman decoder
// shared by -lh4-, -lh5-, -lh6-, -lh7- and (unless built with the nolhx
// tag) -lhx-. Each block carries a fresh temp tree, literal/length tree and
// position tree.
type LhV2Decoder struct {
	br   *bitio.Reader
	win  *ringbuf.Window
	cfg  lhv2Config
	temp *huffman.Tree
	lit  *huffman.Tree
	pos  *huffman.Tree

	remaining uint16
	started   bool

	copyActive    bool
	copyDistance  int
	copyRemaining int
}

func newLhV2(br *bitio.Reader, cfg lhv2Config) *LhV2Decoder {
	return &LhV2Decoder{
		br:  br,
		win: ringbuf.New(1<<cfg.windowBits, 0x20),
		cfg: cfg,
	}
}

// NewLh4 builds a decoder for the -lh4- method (4096-byte window).
func NewLh4(br *bitio.Reader) *LhV2Decoder { return newLhV2(br, lh4Config) }

// NewLh5 builds a decoder for the -lh5- method (8192-byte window).
func NewLh5(br *bitio.Reader) *LhV2Decoder { return newLhV2(br, lh5Config) }

// NewLh6 builds a decoder for the -lh6- method (32768-byte window).
func NewLh6(br *bitio.Reader) *LhV2Decoder { return newLhV2(br, lh6Config) }

// NewLh7 builds a decoder for the -lh7- method (65536-byte window).
func NewLh7(br *bitio.Reader) *LhV2Decoder { return newLhV2(br, lh7Config) }

func (d *LhV2Decoder) FillBuffer(buf []byte) error {
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
		for d.remaining == 0 {
			if err := d.beginNewBlock(); err != nil {
				return err
			}
		}
		d.remaining--

		sym, err := d.lit.Read(d.br)
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

		length := int(sym) - 253
		offsetSym, err := d.pos.Read(d.br)
		if err != nil {
			return err
		}
		var offset int
		if offsetSym != 0 {
			extra, err := d.br.Read(uint(offsetSym) - 1)
			if err != nil {
				return err
			}
			offset = (1 << (offsetSym - 1)) | int(extra)
		}
		distance := offset + 1

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

func (d *LhV2Decoder) beginNewBlock() error {
	blockSize, err := d.br.Read(16)
	if err != nil {
		return err
	}
	if blockSize == 0 {
		return io.EOF
	}
	d.started = true
	if err := d.readTempTree(); err != nil {
		return err
	}
	if err := d.readLiteralTree(); err != nil {
		return err
	}
	if err := d.readPositionTree(); err != nil {
		return err
	}
	d.remaining = blockSize
	return nil
}

// readCodeLength reads a 3-bit code length, extended by unary-coded
// increments whenever the first 3 bits read the all-ones escape value.
func (d *LhV2Decoder) readCodeLength() (byte, error) {
	v, err := d.br.Read(3)
	if err != nil {
		return 0, err
	}
	length := byte(v)
	if length == 7 {
		for {
			bit, err := d.br.ReadBit()
			if err != nil {
				return 0, err
			}
			if !bit {
				break
			}
			if length == 0xFF {
				return 0, huffman.ErrMalformedTree
			}
			length++
		}
	}
	return length, nil
}

func (d *LhV2Decoder) readTempTree() error {
	n, err := d.br.Read(5)
	if err != nil {
		return err
	}
	if n == 0 {
		code, err := d.br.Read(5)
		if err != nil {
			return err
		}
		d.temp = new(huffman.Tree)
		d.temp.SetSingle(code)
		return nil
	}
	if int(n) > numTempCodeLen {
		return huffman.ErrMalformedTree
	}
	limit := int(n)
	var lens [numTempCodeLen]byte

	first := limit
	if first > 3 {
		first = 3
	}
	for i := 0; i < first; i++ {
		l, err := d.readCodeLength()
		if err != nil {
			return err
		}
		lens[i] = l
	}

	if limit > 3 {
		v, err := d.br.Read(2)
		if err != nil {
			return err
		}
		start := 3 + int(v)
		if start > limit {
			return huffman.ErrMalformedTree
		}
		for i := start; i < limit; i++ {
			l, err := d.readCodeLength()
			if err != nil {
				return err
			}
			lens[i] = l
		}
	}

	tree, err := huffman.Build(lens[:limit])
	if err != nil {
		return err
	}
	d.temp = tree
	return nil
}

// readLiteralTree decodes the literal/length code-length table over
// alphabet 0..509 from the temp tree: symbol 0 skips one zero-length
// slot, symbol 1 skips 3..18 slots, symbol 2 skips 20..531 slots, and any
// other symbol is a literal length (symbol-2). Every index update is
// bounds-checked against limit so a malformed stream -- the
// clusterfuzz-1.bin case -- reports an error instead of indexing past
// the alphabet.
func (d *LhV2Decoder) readLiteralTree() error {
	m, err := d.br.Read(9)
	if err != nil {
		return err
	}
	if m == 0 {
		code, err := d.br.Read(9)
		if err != nil {
			return err
		}
		d.lit = new(huffman.Tree)
		d.lit.SetSingle(code)
		return nil
	}
	if int(m) > numCommands {
		return huffman.ErrMalformedTree
	}
	limit := int(m)
	lens := make([]byte, limit)

	index := 0
outer:
	for index < limit {
		n := 0
		for index+n < limit {
			sym, err := d.temp.Read(d.br)
			if err != nil {
				return err
			}
			switch {
			case sym == 0:
				index += n + 1
				continue outer
			case sym == 1:
				v, err := d.br.Read(4)
				if err != nil {
					return err
				}
				index += n + int(v) + 3
				continue outer
			case sym == 2:
				v, err := d.br.Read(9)
				if err != nil {
					return err
				}
				index += n + int(v) + 20
				continue outer
			default:
				lens[index+n] = byte(sym - 2)
				n++
			}
		}
		index += n
	}
	if index != limit {
		return huffman.ErrMalformedTree
	}

	tree, err := huffman.Build(lens)
	if err != nil {
		return err
	}
	d.lit = tree
	return nil
}

// readPositionTree decodes the position/distance code-length table: the
// count and every slot's length are read as raw offsetBits-wide fields,
// no run-length shorthand.
func (d *LhV2Decoder) readPositionTree() error {
	p := d.cfg.offsetBits
	n, err := d.br.Read(p)
	if err != nil {
		return err
	}
	if n == 0 {
		code, err := d.br.Read(p)
		if err != nil {
			return err
		}
		d.pos = new(huffman.Tree)
		d.pos.SetSingle(code)
		return nil
	}
	alphabetSize := int(d.cfg.windowBits) + 1
	if int(n) > alphabetSize {
		return huffman.ErrMalformedTree
	}
	lens := make([]byte, n)
	for i := range lens {
		v, err := d.br.Read(p)
		if err != nil {
			return err
		}
		lens[i] = byte(v)
	}
	tree, err := huffman.Build(lens)
	if err != nil {
		return err
	}
	d.pos = tree
	return nil
}
