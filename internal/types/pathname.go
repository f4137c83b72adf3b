package types

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/japanese"
)

// nilTerminatedComment splits raw Amiga filename bytes at the first NUL:
// everything before it is the path, everything after (if any) is a
// trailing comment.
func nilTerminatedComment(data []byte) (name []byte, comment []byte, hasComment bool) {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		return data[:idx], data[idx+1:], true
	}
	return data, nil, false
}

// isPathSeparator reports whether b is one of the separator bytes a
// level 0-3 header may use between path components: the archive-internal
// 0xFF marker, and the '/' and '\' bytes different encoder OSes favor.
func isPathSeparator(b byte) bool {
	return b == 0xFF || b == '/' || b == '\\'
}

// rawPathname returns the header's path bytes before separator
// normalization: the ExtHeaderPath + ExtHeaderFilename pair when present
// (level 2/3, and level 0/1 archives that carry them anyway), otherwise
// the fixed-header Filename field, with any Amiga NUL-terminated comment
// split off first.
func (h *Header) rawPathname() []byte {
	var dir, name []byte
	for _, e := range h.ExtraHeaders {
		switch e.Tag {
		case ExtHeaderPath:
			dir = e.Payload
		case ExtHeaderFilename:
			name = e.Payload
		}
	}

	isAmiga := h.OSType == byte(OSAmiga)
	if len(name) == 0 {
		name = h.Filename
		if isAmiga {
			name, _, _ = nilTerminatedComment(name)
		}
	}

	if len(dir) == 0 {
		return name
	}
	joined := make([]byte, 0, len(dir)+1+len(name))
	joined = append(joined, dir...)
	joined = append(joined, name...)
	return joined
}

// PathBytes returns the header's path with its separator normalized to
// '/', as raw bytes with no character-set interpretation applied. Per
// spec.md section 4.7 step 5, a leading '/', a `..` component or a drive
// letter is recorded as-is and not acted on here -- extraction safety
// (rejecting absolute paths, `..` traversal, unsafe symlinks) is the
// caller's responsibility, not the parser's.
func (h *Header) PathBytes() []byte {
	raw := h.rawPathname()
	out := make([]byte, len(raw))
	for i, b := range raw {
		if isPathSeparator(b) {
			out[i] = '/'
		} else {
			out[i] = b
		}
	}
	return out
}

// PathString renders PathBytes as a best-effort string: printable ASCII
// (including the '/' separator) passes through unchanged, and every
// control or non-ASCII byte is percent-escaped as "%xx". This never fails
// and never panics on adversarial bytes, but it is not a faithful
// decoding of any particular encoder's native charset -- see
// PathStringShiftJIS for Shift-JIS transcoding.
func (h *Header) PathString() string {
	return escapePathBytes(h.PathBytes())
}

func escapePathBytes(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "%%%02x", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// PathStringShiftJIS best-effort transcodes the raw path bytes as
// Shift-JIS, the encoding MSX and PC-98 era Japanese LHA encoders wrote
// filenames in. It reports an error if the bytes are not valid Shift-JIS;
// callers uncertain of the source OS should fall back to PathString.
func (h *Header) PathStringShiftJIS() (string, error) {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(h.PathBytes())
	if err != nil {
		return "", fmt.Errorf("types: invalid Shift-JIS pathname: %w", err)
	}
	return string(decoded), nil
}

// Comment returns the header's trailing comment text, if any: either an
// ExtHeaderComment extended header, or -- for OS-type Amiga archives that
// embed it directly -- the bytes following the first NUL in the raw
// filename field.
func (h *Header) Comment() (string, bool) {
	var rawFilename []byte = h.Filename
	for _, e := range h.ExtraHeaders {
		switch e.Tag {
		case ExtHeaderFilename:
			rawFilename = e.Payload
		case ExtHeaderComment:
			if len(e.Payload) > 0 {
				return escapePathBytes(e.Payload), true
			}
		}
	}
	if h.OSType == byte(OSAmiga) {
		if _, comment, ok := nilTerminatedComment(rawFilename); ok && len(comment) > 0 {
			return escapePathBytes(comment), true
		}
	}
	return "", false
}
