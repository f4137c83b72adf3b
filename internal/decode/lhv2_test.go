package decode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/amilha/internal/bitio"
)

// lh5FixtureBlock is one hand-assembled -lh5- block: a 3-command block
// (blockSize=3) whose temp tree carries 5 codes (num_codes=5, exercising
// the readTempTree skip path with skip=0 so index 3 and 4 both get real
// lengths), whose literal/length tree uses that temp tree's skip symbol
// (2) to jump over long runs of unused slots up to the literals 'A' (65),
// 'B' (66) and the match-length symbol for length 4 (257), and whose
// position tree is a degenerate single-code tree fixed at offset symbol
// 0 (distance 1). The three commands decode to 'A', 'B', then a
// length-4/distance-1 copy, which is self-overlapping: it must repeat
// the just-emitted 'B' four times rather than only copying real history.
//
// Before the readTempTree fix, this block's skip=0 case was misread as
// count=1 (instead of skip=0), leaving code_lengths[3] never assigned
// its length-4 code and producing an incomplete Kraft sum that
// huffman.Build rejects as ErrMalformedTree.
var lh5FixtureBlock = []byte{
	0x00, 0x03, 0x29, 0x4C, 0x92, 0x05, 0x85, 0xBD, 0xF9, 0x55, 0xE0, 0x0B,
}

func TestLhV2Decoder_FillBuffer_TempTreeSkipAndSelfOverlap(t *testing.T) {
	br := bitio.New(bytes.NewReader(lh5FixtureBlock))
	dec := NewLh5(br)

	buf := make([]byte, 6)
	require.NoError(t, dec.FillBuffer(buf))
	assert.Equal(t, "ABBBBB", string(buf))
}

// TestLhV2Decoder_ReadTempTree_SkipZeroReadsAllLengths pins the fixed
// readTempTree behavior directly: with num_codes=5 and a 2-bit skip
// value of 0, all five temp-tree code lengths must be read from the
// stream (start = 3+0 = 3), leaving no gap in the resulting Huffman
// table.
func TestLhV2Decoder_ReadTempTree_SkipZeroReadsAllLengths(t *testing.T) {
	br := bitio.New(bytes.NewReader(lh5FixtureBlock))
	dec := NewLh5(br)

	// Consume the 16-bit block size the same way beginNewBlock does,
	// leaving the stream positioned at the temp tree section.
	_, err := dec.br.Read(16)
	require.NoError(t, err)

	require.NoError(t, dec.readTempTree())
	require.NotNil(t, dec.temp)

	// The literal tree's 9-bit code count (258) immediately follows the
	// temp tree section; reading it back confirms readTempTree left the
	// bit position exactly where the fixture's next field begins.
	m, err := dec.br.Read(9)
	require.NoError(t, err)
	assert.EqualValues(t, 258, m)

	// A tree built from [1,2,3,4,4] decodes symbol 2 ("110") without
	// error; the pre-fix decoder left code_lengths[3] at 0, which
	// would either desync the bit position or reject the table
	// entirely via huffman.ErrMalformedTree.
	sym, err := dec.temp.Read(dec.br)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sym)
}

func TestLhV2Decoder_FillBuffer_TruncatedTempTreeIsUnexpectedEOF(t *testing.T) {
	// A truncated stream whose temp tree section claims num_codes=5 but
	// runs out of bits partway through must surface bitio's own
	// unexpected-EOF error, not a silently wrong tree.
	short := lh5FixtureBlock[:3]
	br := bitio.New(bytes.NewReader(short))
	dec := NewLh5(br)

	buf := make([]byte, 6)
	err := dec.FillBuffer(buf)
	assert.ErrorIs(t, err, bitio.ErrUnexpectedEOF)
}
