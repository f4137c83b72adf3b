package types

import "time"

// TimestampDisposition reports what a recovered LastModified time zone is
// known to be: LHA's level 0/1 MS-DOS timestamp carries no zone
// information at all, while level 2/3's Unix epoch field (and several
// extended-header timestamp flavors) are unambiguously UTC.
type TimestampDisposition int

const (
	// TimestampNaive means the recovered time has no known time zone: a
	// bare MS-DOS packed date/time with no corroborating extended header.
	TimestampNaive TimestampDisposition = iota
	// TimestampUTC means the recovered time came from a Unix epoch or
	// Windows FILETIME field and is known to be UTC.
	TimestampUTC
)

// Timestamp is a header's recovered last-modified time together with its
// disposition.
type Timestamp struct {
	Time time.Time
	Disposition TimestampDisposition
}

// winFiletimeEpochOffset100ns is the number of 100ns intervals between
// the Windows FILETIME epoch (1601-01-01) and the Unix epoch
// (1970-01-01).
const winFiletimeEpochOffset100ns = 116_444_736_000_000_000

// LastModified recovers the header's last-modified timestamp, preferring
// (in order) whichever extended Unix-time or Windows FILETIME header comes
// first in the extra-header chain, an embedded Unix timestamp in a level-0 extended area written
// by a Unix or OS-9 encoder, and finally the fixed-header field
// interpreted per level: MS-DOS packed date/time for level 0/1, a raw
// Unix epoch second count for level 2/3.
func (h *Header) LastModified() Timestamp {
	for _, e := range h.ExtraHeaders {
		switch e.Tag {
		case ExtHeaderUnixTime:
			if len(e.Payload) >= 4 {
				secs := int64(le32(e.Payload))
				return Timestamp{Time: time.Unix(secs, 0).UTC(), Disposition: TimestampUTC}
			}
		case ExtHeaderMsDosTime:
			if len(e.Payload) == 24 {
				ft := le64(e.Payload[8:16])
				return Timestamp{Time: filetimeToTime(ft), Disposition: TimestampUTC}
			}
		}
	}

	if h.Level < 2 {
		if os, err := h.OS(); err == nil && (os == OSUnix || os == OSOsk) {
			if len(h.ExtendedArea) >= 5 {
				secs := int64(le32(h.ExtendedArea[1:5]))
				return Timestamp{Time: time.Unix(secs, 0).UTC(), Disposition: TimestampUTC}
			}
		}
		return Timestamp{Time: msdosToTime(h.LastModifiedRaw), Disposition: TimestampNaive}
	}
	return Timestamp{Time: time.Unix(int64(h.LastModifiedRaw), 0).UTC(), Disposition: TimestampUTC}
}

// msdosToTime decodes the packed MS-DOS date/time format LHA levels 0
// and 1 store in their fixed header:
//
//	bit   24       16        8        0
//	76543210 76543210 76543210 76543210
//	YYYYYYYM MMMDDDDD hhhhhmmm mmmsssss
//
// Y is years since 1980, seconds are stored in 2-second units. The
// result carries no time zone: the caller must treat it as naive/local.
func msdosToTime(ts uint32) time.Time {
	sec := (ts & 0x1f) * 2
	min := (ts >> 5) & 0x3f
	hour := (ts >> 11) & 0x1f
	day := (ts >> 16) & 0x1f
	mon := (ts >> 21) & 0xf
	year := 1980 + int((ts>>25)&0x7f)
	if mon == 0 || day == 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(mon), int(day), int(hour), int(min), int(sec), 0, time.UTC)
}

// filetimeToTime converts a Windows FILETIME (100ns intervals since
// 1601-01-01) to a UTC time.Time.
func filetimeToTime(ft uint64) time.Time {
	signed := int64(ft) - winFiletimeEpochOffset100ns
	secs := signed / 10_000_000
	nanos := (signed % 10_000_000) * 100
	return time.Unix(secs, nanos).UTC()
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
