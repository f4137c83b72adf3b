//go:build !nolh1

package decode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/amilha/internal/bitio"
)

func TestLh1PosTreeLengthsComplete(t *testing.T) {
	// A canonical Huffman tree requires the Kraft sum over its code lengths
	// to equal 2^maxlen; lh1PosLens is a fixed table, not one read from a
	// stream, so this is the only check that catches a transcription slip.
	const maxLen = 8
	var sum int
	for _, l := range lh1PosLens {
		sum += 1 << (maxLen - int(l))
	}
	assert.Equal(t, 1<<maxLen, sum)
}

func TestLh1Decoder_TerminatesOnEOF(t *testing.T) {
	br := bitio.New(bytes.NewReader([]byte{0x00, 0x00}))
	dec, err := NewLh1(br)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	err = dec.FillBuffer(buf)
	assert.ErrorIs(t, err, bitio.ErrUnexpectedEOF)
}

func TestNewLh1Succeeds(t *testing.T) {
	br := bitio.New(bytes.NewReader(nil))
	dec, err := NewLh1(br)
	require.NoError(t, err)
	require.NotNil(t, dec)
}
