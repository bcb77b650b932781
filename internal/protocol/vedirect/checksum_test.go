package vedirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumWraps(t *testing.T) {
	assert.Equal(t, byte(0), Checksum(nil))
	assert.Equal(t, byte(0x01), Checksum([]byte{0xff, 0x02}))
	assert.Equal(t, byte(0x2c), Checksum([]byte{0x96, 0x96}))
}

func TestChecksumByteZeroesSum(t *testing.T) {
	prefix := []byte("\r\nV\t12800\r\nChecksum\t")
	withCheck := append(append([]byte{}, prefix...), ChecksumByte(prefix))
	assert.True(t, ValidChecksum(withCheck))

	withCheck[len(withCheck)-1] ^= 0xff
	assert.False(t, ValidChecksum(withCheck))
}

func TestFixtureChecksum(t *testing.T) {
	assert.True(t, ValidChecksum(decodeFixture(t, singleBlock)))
}
