// Package huffman builds and reads the canonical Huffman code tables used
// by the lh4/5/6/7/lhx block decoders (a fresh temp tree, literal/length
// tree and position tree per block) and by lh1's static position tree.
package huffman

import (
	"github.com/ossyrian/amilha/internal/bitio"
	"github.com/ossyrian/amilha/internal/lhaerr"
)

// ErrMalformedTree is returned by Build when a code-length table does not
// describe a valid canonical Huffman code: the lengths either leave part
// of the code space unused (incomplete) or claim more of it than exists
// (overflowing). It is the same sentinel amilha.ErrMalformedTree wraps.
var ErrMalformedTree = lhaerr.ErrMalformedTree

// MaxCodeLength bounds the code lengths this package can represent. Every
// lhv2 alphabet (temp tree, literal/length tree, position tree) and lh1's
// position tree fit well within it.
const MaxCodeLength = 16

const invalidEntry = 0xFFFF

// Tree is a decode table for a canonical Huffman code: it reports, for
// any valid bit prefix, which symbol that prefix encodes and how many
// bits to consume.
type Tree struct {
	table   []uint16 // flat lookup table, indexed by the top maxBits bits
	lengths []byte   // code length of each symbol, 0 for unused
	maxBits uint
	single  bool
	symbol  uint16
}

// Build constructs a canonical Huffman decode table from a per-symbol
// code-length array (0 meaning the symbol is absent from this code).
// A table with exactly one present symbol builds a degenerate
// zero-bit tree equivalent to SetSingle.
func Build(lengths []byte) (*Tree, error) {
	maxBits := 0
	nonZero := 0
	var onlySym uint16
	var count [MaxCodeLength + 1]int
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		if int(l) > MaxCodeLength {
			return nil, ErrMalformedTree
		}
		nonZero++
		onlySym = uint16(sym)
		count[l]++
		if int(l) > maxBits {
			maxBits = int(l)
		}
	}
	if nonZero == 0 {
		return nil, ErrMalformedTree
	}
	if nonZero == 1 {
		t := &Tree{lengths: append([]byte(nil), lengths...)}
		t.SetSingle(onlySym)
		return t, nil
	}

	var firstCode [MaxCodeLength + 2]int
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + count[bits-1]) << 1
		firstCode[bits] = code
	}

	size := 1 << uint(maxBits)
	table := make([]uint16, size)
	for i := range table {
		table[i] = invalidEntry
	}

	nextCode := firstCode
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		shift := maxBits - int(l)
		start := c << uint(shift)
		end := start + (1 << uint(shift))
		if end > size {
			return nil, ErrMalformedTree
		}
		for i := start; i < end; i++ {
			table[i] = uint16(sym)
		}
	}
	for _, e := range table {
		if e == invalidEntry {
			return nil, ErrMalformedTree
		}
	}

	return &Tree{
		table:   table,
		lengths: append([]byte(nil), lengths...),
		maxBits: uint(maxBits),
	}, nil
}

// SetSingle turns t into a degenerate tree that always decodes to value
// without consuming any bits, used for alphabets where only one symbol
// occurs in a block.
func (t *Tree) SetSingle(value uint16) {
	t.table = nil
	t.maxBits = 0
	t.single = true
	t.symbol = value
}

// Read decodes the next symbol from br.
func (t *Tree) Read(br *bitio.Reader) (uint16, error) {
	if t.single {
		return t.symbol, nil
	}
	peek := br.PeekPadded(t.maxBits)
	sym := t.table[peek]
	if err := br.Skip(uint(t.lengths[sym])); err != nil {
		return 0, err
	}
	return sym, nil
}

// Len returns the code length, in bits, that symbol currently occupies
// (0 for a degenerate single-symbol tree).
func (t *Tree) Len(symbol uint16) byte {
	if t.single {
		return 0
	}
	return t.lengths[symbol]
}
