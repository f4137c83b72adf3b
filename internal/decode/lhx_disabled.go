//go:build nolhx

package decode

import "github.com/ossyrian/amilha/internal/bitio"

// NewLhx reports that -lhx- support was excluded from this build.
func NewLhx(br *bitio.Reader) (*LhV2Decoder, error) {
	return nil, ErrUnsupportedMethod
}
