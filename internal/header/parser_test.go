package header

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/amilha/internal/crc16"
	"github.com/ossyrian/amilha/internal/lhaerr"
	"github.com/ossyrian/amilha/internal/types"
)

func method(s string) [5]byte {
	var m [5]byte
	copy(m[:], s)
	return m
}

// buildLevel0 assembles a level 0 header byte stream with an optional
// trailing extended area (and its preceding OS-type byte), computing the
// header-length and additive checksum fields the way a real encoder
// would.
func buildLevel0(t *testing.T, filename string, extendedArea []byte, osType byte, compressedSize, originalSize uint32) []byte {
	t.Helper()

	raw := make([]byte, 0, 19)
	m := method("-lh5-")
	raw = append(raw, m[:]...)
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], compressedSize)
	raw = append(raw, sz[:]...)
	binary.LittleEndian.PutUint32(sz[:], originalSize)
	raw = append(raw, sz[:]...)
	raw = append(raw, 0, 0, 0, 0) // last modified
	raw = append(raw, 0x20)       // attrs
	raw = append(raw, 0)          // level 0

	fnLen := len(filename)
	pnAfterCRC := 1 /*first*/ + 1 /*csum*/ + 19 /*raw*/ + 1 /*fnLen byte*/ + fnLen + 2 /*crc*/
	minLen := pnAfterCRC - 2
	wireExtra := 0
	if len(extendedArea) > 0 {
		wireExtra = len(extendedArea) + 1
	}
	headerLen := minLen + wireExtra
	require.Less(t, headerLen, 256, "test fixture must fit a one-byte header length")

	buf := make([]byte, 0, headerLen+2)
	buf = append(buf, byte(headerLen), 0 /* csum placeholder */)
	buf = append(buf, raw...)
	buf = append(buf, byte(fnLen))
	buf = append(buf, []byte(filename)...)
	buf = append(buf, 0xCD, 0xAB) // file CRC16, arbitrary
	if len(extendedArea) > 0 {
		buf = append(buf, osType)
		buf = append(buf, extendedArea...)
	}

	var csum byte
	for _, b := range buf[2:] {
		csum += b
	}
	buf[1] = csum
	return buf
}

func TestParseLevel0Basic(t *testing.T) {
	buf := buildLevel0(t, "HELLO.TXT", nil, 0, 100, 200)
	h, err := Parse(bytes.NewReader(buf))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, uint8(0), h.Level)
	assert.Equal(t, method("-lh5-"), h.Method)
	assert.Equal(t, uint64(100), h.CompressedSize)
	assert.Equal(t, uint64(200), h.OriginalSize)
	assert.Equal(t, []byte("HELLO.TXT"), h.Filename)
	assert.Equal(t, uint16(0xABCD), h.FileCRC16)
	assert.False(t, h.HasHeaderCRC16)
}

func TestParseLevel0WithExtendedArea(t *testing.T) {
	// Unix timestamp embedded in the level 0 extended area: 1 spare byte
	// followed by a 4-byte little-endian epoch second count.
	area := make([]byte, 5)
	binary.LittleEndian.PutUint32(area[1:5], 1_600_000_000)
	buf := buildLevel0(t, "unixfile", area, byte(types.OSUnix), 10, 20)

	h, err := Parse(bytes.NewReader(buf))
	require.NoError(t, err)
	require.NotNil(t, h)
	osType, err := h.OS()
	require.NoError(t, err)
	assert.Equal(t, types.OSUnix, osType)
	assert.Equal(t, area, h.ExtendedArea)

	ts := h.LastModified()
	assert.Equal(t, types.TimestampUTC, ts.Disposition)
	assert.Equal(t, int64(1_600_000_000), ts.Time.Unix())
}

func TestParseLevel0BadChecksum(t *testing.T) {
	buf := buildLevel0(t, "BAD.TXT", nil, 0, 1, 1)
	buf[1] ^= 0xFF // corrupt the additive checksum
	_, err := Parse(bytes.NewReader(buf))
	assert.ErrorIs(t, err, lhaerr.ErrHeaderChecksum)
}

func TestParseEndOfArchive(t *testing.T) {
	h, err := Parse(bytes.NewReader([]byte{0}))
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestParseCleanEOF(t *testing.T) {
	h, err := Parse(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestParseTruncatedHeader(t *testing.T) {
	buf := buildLevel0(t, "TRUNC.TXT", nil, 0, 1, 1)
	_, err := Parse(bytes.NewReader(buf[:10]))
	assert.ErrorIs(t, err, lhaerr.ErrUnexpectedEOF)
}

func TestParseUnknownLevel(t *testing.T) {
	buf := buildLevel0(t, "X", nil, 0, 1, 1)
	buf[20] = 4 // level byte at offset 2+18
	// Corrupting the level also invalidates the additive checksum the
	// byte itself contributes to, so fix it back up.
	var csum byte
	for _, b := range buf[2:] {
		csum += b
	}
	buf[1] = csum
	_, err := Parse(bytes.NewReader(buf))
	assert.ErrorIs(t, err, lhaerr.ErrMalformedHeader)
}

// buildLevel2WithCommonCRC assembles a minimal level 2 header carrying a
// single ExtHeaderCommon extra header, with the whole-header CRC-16
// filled in correctly.
func buildLevel2WithCommonCRC(t *testing.T) []byte {
	t.Helper()

	const (
		firstHeaderLen = 6  // tag(1) + crcPlaceholder(2) + filler(1) + trailer(2)
		longHeaderLen  = 32 // total header size, computed below
	)

	buf := make([]byte, longHeaderLen)
	buf[0] = byte(longHeaderLen & 0xFF)
	buf[1] = byte(longHeaderLen >> 8)
	m := method("-lh5-")
	copy(buf[2:7], m[:])
	binary.LittleEndian.PutUint32(buf[7:11], 100)  // compressed size
	binary.LittleEndian.PutUint32(buf[11:15], 200) // original size
	binary.LittleEndian.PutUint32(buf[15:19], 0)   // last modified
	buf[19] = 0x20                                 // attrs
	buf[20] = 2                                    // level
	binary.LittleEndian.PutUint16(buf[21:23], 0xABCD)
	buf[23] = byte(types.OSUnix)
	binary.LittleEndian.PutUint16(buf[24:26], firstHeaderLen)

	buf[26] = types.ExtHeaderCommon
	// buf[27:29] is the CRC-16 field, left zero for now.
	buf[29] = byte(types.OSUnix) // filler payload byte
	binary.LittleEndian.PutUint16(buf[30:32], 0) // no further extra headers

	require.Equal(t, longHeaderLen, len(buf))
	crc := crc16.Sum(buf)
	binary.LittleEndian.PutUint16(buf[27:29], crc)
	return buf
}

func TestParseLevel2CommonCRC(t *testing.T) {
	buf := buildLevel2WithCommonCRC(t)
	h, err := Parse(bytes.NewReader(buf))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, uint8(2), h.Level)
	assert.True(t, h.HasHeaderCRC16)
	require.Len(t, h.ExtraHeaders, 1)
	assert.Equal(t, types.ExtHeaderCommon, h.ExtraHeaders[0].Tag)
	// The stored payload has its CRC bytes zeroed, matching what was
	// fed into the checksum.
	assert.Equal(t, []byte{0, 0, byte(types.OSUnix)}, h.ExtraHeaders[0].Payload)
}

func TestParseLevel2CommonCRCMismatch(t *testing.T) {
	buf := buildLevel2WithCommonCRC(t)
	buf[27] ^= 0xFF
	_, err := Parse(bytes.NewReader(buf))
	assert.ErrorIs(t, err, lhaerr.ErrHeaderChecksum)
}
