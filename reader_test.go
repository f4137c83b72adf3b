package amilha_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/amilha"
	"github.com/ossyrian/amilha/internal/crc16"
)

// buildLevel0Member assembles a minimal level 0 header (stored method)
// followed by content, computing the header's additive checksum and
// content CRC-16 the way a real encoder would.
func buildLevel0Member(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	return buildLevel0MemberMethod(t, "-lh0-", name, content)
}

func buildLevel0MemberMethod(t *testing.T, method, name string, content []byte) []byte {
	t.Helper()

	raw := make([]byte, 0, 19)
	raw = append(raw, []byte(method)...)
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(len(content)))
	raw = append(raw, sz[:]...) // compressed size == original size for stored
	raw = append(raw, sz[:]...) // original size
	raw = append(raw, 0, 0, 0, 0)
	raw = append(raw, 0x20, 0) // attrs, level 0

	fnLen := len(name)
	pnAfterCRC := 1 + 1 + 19 + 1 + fnLen + 2
	headerLen := pnAfterCRC - 2 // no extended area, level 0 adjustment

	buf := make([]byte, 0, headerLen+2)
	buf = append(buf, byte(headerLen), 0)
	buf = append(buf, raw...)
	buf = append(buf, byte(fnLen))
	buf = append(buf, []byte(name)...)

	contentCRC := crc16.Sum(content)
	var crcBytes [2]byte
	binary.LittleEndian.PutUint16(crcBytes[:], contentCRC)
	buf = append(buf, crcBytes[:]...)

	var csum byte
	for _, b := range buf[2:] {
		csum += b
	}
	buf[1] = csum

	buf = append(buf, content...)
	return buf
}

func TestReaderRoundTrip(t *testing.T) {
	var archive bytes.Buffer
	archive.Write(buildLevel0Member(t, "hello.txt", []byte("hello, world")))
	archive.Write(buildLevel0Member(t, "second.txt", []byte("a second member")))
	archive.WriteByte(0) // end of archive marker

	r := amilha.Open(bytes.NewReader(archive.Bytes()))

	h, err := r.NextMember()
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "hello.txt", h.PathString())
	assert.True(t, r.IsSupported())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(got))
	require.NoError(t, r.Verify())

	h2, err := r.NextMember()
	require.NoError(t, err)
	require.NotNil(t, h2)
	assert.Equal(t, "second.txt", h2.PathString())
	require.NoError(t, r.Verify())

	h3, err := r.NextMember()
	require.NoError(t, err)
	assert.Nil(t, h3)
}

func TestReaderSkipsUnreadMember(t *testing.T) {
	var archive bytes.Buffer
	archive.Write(buildLevel0Member(t, "skip-me.bin", bytes.Repeat([]byte{0x42}, 64)))
	archive.Write(buildLevel0Member(t, "read-me.txt", []byte("still here")))
	archive.WriteByte(0)

	r := amilha.Open(bytes.NewReader(archive.Bytes()))

	_, err := r.NextMember()
	require.NoError(t, err)
	// Deliberately don't read the first member's content.

	h2, err := r.NextMember()
	require.NoError(t, err)
	require.NotNil(t, h2)
	assert.Equal(t, "read-me.txt", h2.PathString())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "still here", string(got))
}

func TestReaderContentChecksumMismatch(t *testing.T) {
	buf := buildLevel0Member(t, "corrupt.txt", []byte("original"))
	// Flip a content byte after the checksum was computed over the
	// original bytes.
	contentStart := len(buf) - len("original")
	buf[contentStart] ^= 0xFF

	r := amilha.Open(bytes.NewReader(buf))
	_, err := r.NextMember()
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Verify(), amilha.ErrContentChecksum)
}

// TestReaderTruncatedContentIsUnexpectedEOF exercises spec.md section 8's
// truncated.lzh fixture: a member whose header parses fine but whose
// declared content is cut short must fail Read with the same
// amilha.ErrUnexpectedEOF sentinel a truncated header would, regardless of
// which internal layer (bitio, in a compressed method's case) detected
// the shortfall.
func TestReaderTruncatedContentIsUnexpectedEOF(t *testing.T) {
	buf := buildLevel0Member(t, "truncated.bin", []byte("0123456789"))
	buf = buf[:len(buf)-4] // drop the last 4 content bytes

	r := amilha.Open(bytes.NewReader(buf))
	_, err := r.NextMember()
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, amilha.ErrUnexpectedEOF)
}

// TestReaderUnsupportedMethodIsClassified pins the same sentinel-identity
// contract for method dispatch: internal/decode.New's own ErrUnsupportedMethod
// must classify as amilha.ErrUnsupportedMethod once it reaches a Read call,
// exactly like IsSupported already reports for the same header.
func TestReaderUnsupportedMethodIsClassified(t *testing.T) {
	buf := buildLevel0MemberMethod(t, "-lh2-", "odd.bin", []byte("xy"))

	r := amilha.Open(bytes.NewReader(buf))
	h, err := r.NextMember()
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.False(t, r.IsSupported())

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, amilha.ErrUnsupportedMethod)
}
