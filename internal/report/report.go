// Package report builds summaries of parsed archive members for the
// list and verify subcommands, using samber/lo for the functional
// mapping/filtering/grouping that would otherwise be hand-rolled loops.
package report

import (
	"github.com/samber/lo"

	"github.com/ossyrian/amilha/internal/types"
)

// Entry summarizes one archive member for display.
type Entry struct {
	Path           string
	Method         string
	CompressedSize uint64
	OriginalSize   uint64
	IsDirectory    bool
	Supported      bool
	VerifyErr      error
}

// Ratio returns the entry's compression ratio as a percentage of
// original_size, or 0 for an empty or directory entry.
func (e Entry) Ratio() float64 {
	if e.OriginalSize == 0 {
		return 0
	}
	return float64(e.CompressedSize) / float64(e.OriginalSize) * 100
}

// BuildEntries maps parsed headers into display entries, pairing each
// with whether its method is supported in this build (and, if verified,
// the outcome of that verification).
func BuildEntries(headers []*types.Header, supported []bool, verifyErrs []error) []Entry {
	return lo.Map(headers, func(h *types.Header, i int) Entry {
		method, _ := h.CompressionMethod()
		var verr error
		if i < len(verifyErrs) {
			verr = verifyErrs[i]
		}
		sup := true
		if i < len(supported) {
			sup = supported[i]
		}
		return Entry{
			Path:           h.PathString(),
			Method:         method.String(),
			CompressedSize: h.CompressedSize,
			OriginalSize:   h.OriginalSize,
			IsDirectory:    h.IsDirectory(),
			Supported:      sup,
			VerifyErr:      verr,
		}
	})
}

// Failed filters entries down to those with a recorded verification
// error.
func Failed(entries []Entry) []Entry {
	return lo.Filter(entries, func(e Entry, _ int) bool { return e.VerifyErr != nil })
}

// Unsupported filters entries down to those whose compression method
// isn't supported in this build.
func Unsupported(entries []Entry) []Entry {
	return lo.Filter(entries, func(e Entry, _ int) bool { return !e.Supported })
}

// GroupByMethod buckets entries by their compression method tag, e.g. to
// print a per-method totals table.
func GroupByMethod(entries []Entry) map[string][]Entry {
	return lo.GroupBy(entries, func(e Entry) string { return e.Method })
}

// TotalSizes sums the compressed and original sizes across entries.
func TotalSizes(entries []Entry) (compressed, original uint64) {
	for _, e := range entries {
		compressed += e.CompressedSize
		original += e.OriginalSize
	}
	return compressed, original
}
