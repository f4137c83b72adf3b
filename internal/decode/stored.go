package decode

import "io"

// Stored is the passthrough decoder for -lh0- and -lz4-: the payload is
// already plaintext, copied verbatim from the underlying byte source.
type Stored struct {
	src io.Reader
}

// NewStored wraps src as a Decoder that copies bytes unchanged.
func NewStored(src io.Reader) *Stored {
	return &Stored{src: src}
}

func (s *Stored) FillBuffer(buf []byte) error {
	_, err := io.ReadFull(s.src, buf)
	return err
}
