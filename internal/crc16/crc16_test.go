package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumKnownVectors(t *testing.T) {
	assert.Equal(t, uint16(0), Sum(nil))
	assert.Equal(t, uint16(0xBB3D), Sum([]byte("123456789")))
}

func TestHasherIncremental(t *testing.T) {
	var h Hasher
	h.Write([]byte("12345"))
	h.Write([]byte("6789"))
	assert.Equal(t, Sum([]byte("123456789")), h.Sum16())

	h.Reset()
	assert.Equal(t, uint16(0), h.Sum16())

	h.WriteByte('a')
	h.WriteByte('b')
	assert.Equal(t, Sum([]byte("ab")), h.Sum16())
}
