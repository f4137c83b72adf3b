//go:build !nolhx

package decode

import "github.com/ossyrian/amilha/internal/bitio"

var lhxConfig = lhv2Config{windowBits: 17, offsetBits: 7}

// NewLhx builds a decoder for the experimental -lhx- method (131072-byte
// window, as observed in known encoders -- the format does not
// standardize its position-alphabet size).
func NewLhx(br *bitio.Reader) (*LhV2Decoder, error) { return newLhV2(br, lhxConfig), nil }
