package bitio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBitsMSBFirst(t *testing.T) {
	r := New(bytes.NewReader([]byte{0b10110010, 0b00001111}))

	v, err := r.Read(4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0b1011), v)

	v, err = r.Read(4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0b0010), v)

	v, err = r.Read(8)
	require.NoError(t, err)
	assert.Equal(t, uint16(0b00001111), v)
}

func TestPeekDoesNotConsume(t *testing.T) {
	r := New(bytes.NewReader([]byte{0xAB}))

	v1, err := r.Peek(8)
	require.NoError(t, err)
	v2, err := r.Peek(8)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, uint16(0xAB), v1)
}

func TestUnexpectedEOF(t *testing.T) {
	r := New(bytes.NewReader(nil))
	_, err := r.Read(1)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestAlignToByte(t *testing.T) {
	r := New(bytes.NewReader([]byte{0xFF, 0x00}))
	_, err := r.Read(3)
	require.NoError(t, err)
	r.AlignToByte()
	v, err := r.Read(8)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00), v)
}

func TestBytesConsumed(t *testing.T) {
	r := New(bytes.NewReader([]byte{0x01, 0x02, 0x03}))
	_, err := r.Read(16)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.BytesConsumed())
	_, err = r.Read(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.BytesConsumed())
}

func TestPeekPaddedZeroFillsAtEOF(t *testing.T) {
	r := New(bytes.NewReader([]byte{0b11000000}))
	err := r.Skip(6)
	require.NoError(t, err)
	// Only 2 real bits ("00") remain; asking for 5 must not error, and
	// the padding bits read back as zero.
	v := r.PeekPadded(5)
	assert.Equal(t, uint16(0), v)
}

func TestResetRebindsSource(t *testing.T) {
	r := New(bytes.NewReader([]byte{0xFF}))
	_, _ = r.Read(4)
	r.Reset(bytes.NewReader([]byte{0x00}))
	v, err := r.Read(8)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00), v)
	assert.Equal(t, int64(1), r.BytesConsumed())
}
