package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// RFC 3720 test vector: 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))
	assert.NotEqual(t, CRC32C([]byte("a")), CRC32C([]byte("b")))
}

func TestSum64(t *testing.T) {
	assert.Equal(t, uint64(0xef46db3751d8e999), Sum64(nil))
	assert.Equal(t, Sum64([]byte("hasso")), Sum64([]byte("hasso")))
	assert.NotEqual(t, Sum64([]byte("hasso")), Sum64([]byte("plattner")))
}
