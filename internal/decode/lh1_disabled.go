//go:build nolh1

package decode

import "github.com/ossyrian/amilha/internal/bitio"

// Lh1Decoder is a stub: -lh1- support was excluded from this build.
type Lh1Decoder struct{}

func (d *Lh1Decoder) FillBuffer(buf []byte) error { return ErrUnsupportedMethod }

// NewLh1 reports that -lh1- support was excluded from this build.
func NewLh1(br *bitio.Reader) (*Lh1Decoder, error) {
	return nil, ErrUnsupportedMethod
}
