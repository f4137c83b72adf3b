// Package header implements the HeaderParser component: dissection of
// the LHA/LZH level 0 through 3 member header formats, extended-header
// chaining, per-header checksum verification, and assembly of a
// types.Header record.
//
// Level 0 and 1 use a fixed-size prefix plus an inline filename and an
// 8-bit additive checksum. Level 2 and 3 replace the inline filename
// with a chain of (tag, payload, next-size) extended headers and a
// whole-header CRC-16. The four levels share enough structure that one
// parser threads all of them, branching on the level byte found at a
// fixed offset.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ossyrian/amilha/internal/crc16"
	"github.com/ossyrian/amilha/internal/lhaerr"
	"github.com/ossyrian/amilha/internal/types"
)

// rawFixedHeader mirrors the 19-byte fixed portion common to every
// level: 5-byte method tag, two 4-byte LE sizes, a 4-byte LE MS-DOS
// timestamp, one attribute byte, one level byte.
type rawFixedHeader struct {
	Method         [5]byte
	CompressedSize uint32
	OriginalSize   uint32
	LastModified   uint32
	Attrs          byte
	Level          byte
}

const rawFixedHeaderSize = 19

// parser accumulates the running CRC-16 (used by level 2/3's whole-header
// checksum) and an 8-bit wrapping additive sum (used by level 0/1) as it
// reads, alongside a count of bytes consumed since the level byte's
// surrounding prefix.
type parser struct {
	r    io.Reader
	crc  crc16.Hasher
	csum byte
	n    int
}

func (p *parser) wrapErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", lhaerr.ErrUnexpectedEOF, err)
	}
	return fmt.Errorf("%w: %w", lhaerr.ErrIO, err)
}

// readByteOrEOF reads a single byte without touching the wrapping sum
// (only the running CRC and byte count), reporting ok=false on a clean,
// zero-byte end of stream.
func (p *parser) readByteOrEOF() (b byte, ok bool, err error) {
	var buf [1]byte
	nr, rerr := io.ReadFull(p.r, buf[:])
	if nr == 0 && errors.Is(rerr, io.EOF) {
		return 0, false, nil
	}
	if rerr != nil {
		return 0, false, p.wrapErr(rerr)
	}
	p.n++
	p.crc.WriteByte(buf[0])
	return buf[0], true, nil
}

// readExact reads len(buf) bytes, feeding them into both the running CRC
// and the wrapping additive sum.
func (p *parser) readExact(buf []byte) error {
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return p.wrapErr(err)
	}
	p.n += len(buf)
	p.crc.Write(buf)
	for _, b := range buf {
		p.csum += b
	}
	return nil
}

func (p *parser) readByte() (byte, error) {
	var buf [1]byte
	if err := p.readExact(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (p *parser) readU16() (uint16, error) {
	var buf [2]byte
	if err := p.readExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (p *parser) readU32() (uint32, error) {
	var buf [4]byte
	if err := p.readExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// readLimit reads n bytes and feeds them into both running checksums, as
// used for the level 0/1 filename and extended-area fields.
func (p *parser) readLimit(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := p.readExact(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readLimitNoChecksum reads n bytes without feeding either checksum or
// the byte count, used for extra-header chunks whose content (the Common header's CRC-16
// field) must be zeroed in place before it is checksummed.
func (p *parser) readLimitNoChecksum(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return nil, p.wrapErr(err)
	}
	return buf, nil
}

// updateChecksumNoWrapping feeds buf into the running CRC-16 and byte
// count only, mirroring readExact minus the 8-bit sum -- used once an
// extra-header chunk's Common-header CRC bytes have been zeroed.
func (p *parser) updateChecksumNoWrapping(buf []byte) {
	p.n += len(buf)
	p.crc.Write(buf)
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", lhaerr.ErrMalformedHeader, reason)
}

// Parse reads one LHA/LZH member header from r. It returns (nil, nil) on
// a clean end of archive: either the underlying source is exhausted at a
// header boundary, or the next byte is the literal end-of-archive marker
// (0).
func Parse(r io.Reader) (*types.Header, error) {
	p := &parser{r: r}

	first, ok, err := p.readByteOrEOF()
	if err != nil {
		return nil, err
	}
	if !ok || first == 0 {
		return nil, nil
	}
	headerLen := first

	csumField, err := p.readByte()
	if err != nil {
		return nil, err
	}
	// The wrapping 8-bit checksum covers everything from here on, not
	// the header-length/checksum-field prefix itself.
	p.csum = 0

	var raw rawFixedHeader
	rawBuf := make([]byte, rawFixedHeaderSize)
	if err := p.readExact(rawBuf); err != nil {
		return nil, err
	}
	copy(raw.Method[:], rawBuf[0:5])
	raw.CompressedSize = binary.LittleEndian.Uint32(rawBuf[5:9])
	raw.OriginalSize = binary.LittleEndian.Uint32(rawBuf[9:13])
	raw.LastModified = binary.LittleEndian.Uint32(rawBuf[13:17])
	raw.Attrs = rawBuf[17]
	raw.Level = rawBuf[18]

	if raw.Level > 3 {
		return nil, malformed("unknown header level")
	}

	var filename []byte
	if raw.Level < 2 {
		filenameLen, err := p.readByte()
		if err != nil {
			return nil, err
		}
		if int(headerLen) < p.n+int(filenameLen) {
			return nil, malformed("wrong header size")
		}
		if filename, err = p.readLimit(int(filenameLen)); err != nil {
			return nil, err
		}
	}

	fileCRC, err := p.readU16()
	if err != nil {
		return nil, err
	}

	var osType byte
	if raw.Level > 0 {
		if osType, err = p.readByte(); err != nil {
			return nil, err
		}
	}

	var extendedArea []byte
	if raw.Level < 2 {
		minLen := p.n
		if raw.Level == 0 {
			minLen -= 2
		}
		if int(headerLen) < minLen {
			return nil, malformed("wrong header size")
		}
		extendedLen := int(headerLen) - minLen
		if extendedLen != 0 && raw.Level == 0 {
			extendedLen--
			if osType, err = p.readByte(); err != nil {
				return nil, err
			}
		}
		if extendedLen != 0 {
			if extendedArea, err = p.readLimit(extendedLen); err != nil {
				return nil, err
			}
		}
	}

	var longHeaderLen, firstHeaderLen uint32
	switch raw.Level {
	case 1:
		v, err := p.readU16()
		if err != nil {
			return nil, err
		}
		firstHeaderLen = uint32(v)
	case 2:
		longHeaderLen = uint32(headerLen) | uint32(csumField)<<8
		v, err := p.readU16()
		if err != nil {
			return nil, err
		}
		firstHeaderLen = uint32(v)
	case 3:
		if longHeaderLen, err = p.readU32(); err != nil {
			return nil, err
		}
		if firstHeaderLen, err = p.readU32(); err != nil {
			return nil, err
		}
		if headerLen != 4 || csumField != 0 {
			return nil, malformed("invalid level 3 header")
		}
	}

	if raw.Level < 2 {
		if csumField != p.csum {
			return nil, fmt.Errorf("%w: level %d header", lhaerr.ErrHeaderChecksum, raw.Level)
		}
	} else if longHeaderLen < uint32(p.n)+firstHeaderLen {
		return nil, malformed("wrong header size")
	}

	attrs := types.MsDosAttrs(raw.Attrs)
	originalSize := uint64(raw.OriginalSize)
	compressedSize := uint64(raw.CompressedSize)
	var headerCRC16 uint16
	var hasHeaderCRC16 bool

	minExtraLen := 3
	if raw.Level == 3 {
		minExtraLen = 5
	}
	trailerWidth := 2
	if raw.Level == 3 {
		trailerWidth = 4
	}

	var extraHeaders []types.ExtraHeader
	totalExtraBytes := 0
	extraLen := int(firstHeaderLen)
	for extraLen != 0 {
		if extraLen < minExtraLen {
			return nil, malformed("wrong extra header size")
		}
		if longHeaderLen != 0 {
			if int(longHeaderLen) < p.n+extraLen-2 {
				return nil, malformed("wrong header size")
			}
		} else if compressedSize < uint64(totalExtraBytes+extraLen) {
			return nil, malformed("wrong length of skip size")
		}

		chunk, err := p.readLimitNoChecksum(extraLen)
		if err != nil {
			return nil, err
		}
		tag := chunk[0]
		payload := chunk[1 : len(chunk)-trailerWidth]

		switch {
		case tag == types.ExtHeaderCommon:
			if hasHeaderCRC16 {
				return nil, malformed("double common CRC-16 header")
			}
			if len(payload) >= 2 {
				headerCRC16 = binary.LittleEndian.Uint16(payload[0:2])
				hasHeaderCRC16 = true
				payload[0], payload[1] = 0, 0
			}
		case tag == types.ExtHeaderMsDosAttrs || tag == types.ExtHeaderExtAttrs:
			if len(payload) >= 2 {
				attrs = types.MsDosAttrs(binary.LittleEndian.Uint16(payload[0:2]))
			}
		case tag == types.ExtHeaderMsDosSize:
			if raw.Level >= 2 && len(payload) >= 16 {
				compressedSize = binary.LittleEndian.Uint64(payload[0:8])
				originalSize = binary.LittleEndian.Uint64(payload[8:16])
			}
		}

		p.updateChecksumNoWrapping(chunk)
		extraHeaders = append(extraHeaders, types.ExtraHeader{
			Tag:     tag,
			Payload: append([]byte(nil), payload...),
		})
		totalExtraBytes += len(chunk)

		trailer := chunk[len(chunk)-trailerWidth:]
		if raw.Level == 3 {
			extraLen = int(binary.LittleEndian.Uint32(trailer))
		} else {
			extraLen = int(binary.LittleEndian.Uint16(trailer))
		}
	}

	if longHeaderLen != 0 && longHeaderLen != uint32(p.n) {
		switch {
		case raw.Level == 2 && longHeaderLen == uint32(p.n)+1:
			if _, err := p.readByte(); err != nil {
				return nil, err
			}
		case raw.Level == 2 && longHeaderLen+2 != uint32(p.n):
			return nil, malformed("wrong length of headers")
		}
	}

	if hasHeaderCRC16 && headerCRC16 != p.crc.Sum16() {
		return nil, fmt.Errorf("%w: level %d header", lhaerr.ErrHeaderChecksum, raw.Level)
	}

	if raw.Level == 1 {
		if uint64(totalExtraBytes) > compressedSize {
			return nil, malformed("wrong length of skip size")
		}
		compressedSize -= uint64(totalExtraBytes)
	}

	return &types.Header{
		Level:           raw.Level,
		Method:          raw.Method,
		CompressedSize:  compressedSize,
		OriginalSize:    originalSize,
		Filename:        filename,
		Attrs:           attrs,
		LastModifiedRaw: raw.LastModified,
		OSType:          osType,
		FileCRC16:       fileCRC,
		HasHeaderCRC16:  hasHeaderCRC16,
		HeaderCRC16:     headerCRC16,
		ExtendedArea:    extendedArea,
		ExtraHeaders:    extraHeaders,
	}, nil
}
