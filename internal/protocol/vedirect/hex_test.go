package vedirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexPingResponse(t *testing.T) {
	rec, n, err := ParseHex([]byte(":51641F9\n\r\nV\t1"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, HexPingResponse, rec.Command)
	assert.Equal(t, []byte{0x16, 0x41}, rec.Data)
	assert.Equal(t, byte(0xF9), rec.Checksum)
	assert.True(t, rec.Valid)
	assert.Equal(t, "51641F9", rec.String())
}

func TestEncodeHexKnownMessages(t *testing.T) {
	assert.Equal(t, ":154\n", string(EncodeHex(HexPing, nil)))
	assert.Equal(t, ":70001004D\n", string(EncodeGet(0x0100)))
}

func TestParseHexLowercaseDigits(t *testing.T) {
	rec, _, err := ParseHex([]byte(":51641f9\n"))
	require.NoError(t, err)
	assert.True(t, rec.Valid)
}

func TestParseHexBadChecksumIsKept(t *testing.T) {
	rec, _, err := ParseHex([]byte(":51641F8\n"))
	require.NoError(t, err)
	assert.False(t, rec.Valid)
	assert.Equal(t, HexPingResponse, rec.Command)
}

func TestParseHexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ExtractError
	}{
		{"empty", "", Incomplete},
		{"no marker", "51641F9\n", NoMatch},
		{"truncated", ":51641", Incomplete},
		{"non hex digit", ":5164XF9\n", NoMatch},
		{"even digit count", ":5164\n", NoMatch},
		{"command only", ":5\n", NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseHex([]byte(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHexRegisterPayload(t *testing.T) {
	wire := EncodeHex(HexGet, []byte{0x02, 0xED, 0x00, 0x10, 0x27})

	rec, n, err := ParseHex(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	assert.True(t, rec.Valid)

	reg, ok := rec.Register()
	require.True(t, ok)
	assert.Equal(t, uint16(0xED02), reg.ID)
	assert.Equal(t, byte(0), reg.Flags)
	v, ok := reg.Uint()
	require.True(t, ok)
	assert.Equal(t, uint64(0x2710), v)
}

func TestHexRegisterRejectsOtherCommands(t *testing.T) {
	rec, _, err := ParseHex([]byte(":51641F9\n"))
	require.NoError(t, err)
	_, ok := rec.Register()
	assert.False(t, ok)
}
