package vedirect

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// HEX 协议报文: ":" + 命令半字节 + 数据字节(十六进制) + 校验字节 + "\n"
// 校验规则: 命令 + 所有字节 + 校验字节 == 0x55 (mod 256)
const (
	hexChecksumTarget = 0x55
	maxHexDigits      = 512
)

// HexCommand is the leading nibble of a HEX record. Requests and responses
// share the nibble space, hence the overlapping values.
type HexCommand byte

// Requests sent to the device.
const (
	HexPing       HexCommand = 0x1
	HexAppVersion HexCommand = 0x3
	HexProductID  HexCommand = 0x4
	HexRestart    HexCommand = 0x6
	HexGet        HexCommand = 0x7
	HexSet        HexCommand = 0x8
	HexAsync      HexCommand = 0xA
)

// Responses received from the device.
const (
	HexDone         HexCommand = 0x1
	HexUnknown      HexCommand = 0x3
	HexError        HexCommand = 0x4
	HexPingResponse HexCommand = 0x5
)

// HexRecord is one decoded HEX protocol message. Valid reports whether the
// HEX checksum held; an invalid record is still returned so callers can log it.
type HexRecord struct {
	Command  HexCommand `json:"command"`
	Data     []byte     `json:"data"`
	Checksum byte       `json:"checksum"`
	Valid    bool       `json:"valid"`
}

// Register is the payload layout shared by Get, Set and Async messages.
type Register struct {
	ID    uint16 `json:"id"`
	Flags byte   `json:"flags"`
	Value []byte `json:"value"`
}

// Register splits a Get/Set/Async payload into register id, flags and value.
func (h HexRecord) Register() (Register, bool) {
	switch h.Command {
	case HexGet, HexSet, HexAsync:
	default:
		return Register{}, false
	}
	if len(h.Data) < 3 {
		return Register{}, false
	}
	return Register{
		ID:    binary.LittleEndian.Uint16(h.Data[0:2]),
		Flags: h.Data[2],
		Value: h.Data[3:],
	}, true
}

// Uint decodes the little-endian register value.
func (r Register) Uint() (uint64, bool) {
	if len(r.Value) == 0 || len(r.Value) > 8 {
		return 0, false
	}
	var v uint64
	for i := len(r.Value) - 1; i >= 0; i-- {
		v = v<<8 | uint64(r.Value[i])
	}
	return v, true
}

// String renders the record the way it appears on the wire, without the
// leading marker and trailing LF.
func (h HexRecord) String() string {
	return fmt.Sprintf("%X%s%02X", byte(h.Command)&0x0f, strings.ToUpper(hex.EncodeToString(h.Data)), h.Checksum)
}

// ParseHex parses one HEX record from the start of input and returns the
// number of bytes it spans, LF included.
func ParseHex(input []byte) (HexRecord, int, error) {
	if len(input) == 0 {
		return HexRecord{}, 0, errorf(Incomplete, "HEX marker at offset 0")
	}
	if input[0] != hexMarker {
		return HexRecord{}, 0, errorf(NoMatch, "expected HEX marker, got 0x%02X at offset 0", input[0])
	}
	r := hexRule(input)
	if r.outcome != done {
		return HexRecord{}, 0, r.err()
	}
	return r.value, r.n, nil
}

// EncodeHex builds a HEX record for cmd and payload, checksum and framing
// included.
func EncodeHex(cmd HexCommand, payload []byte) []byte {
	check := byte(hexChecksumTarget) - byte(cmd) - Checksum(payload)
	digits := strings.ToUpper(hex.EncodeToString(append(append([]byte{}, payload...), check)))
	out := make([]byte, 0, 3+len(digits))
	out = append(out, hexMarker)
	out = append(out, fmt.Sprintf("%X", byte(cmd)&0x0f)...)
	out = append(out, digits...)
	return append(out, '\n')
}

// EncodeGet builds a Get request for a register.
func EncodeGet(id uint16) []byte {
	payload := make([]byte, 3)
	binary.LittleEndian.PutUint16(payload, id)
	return EncodeHex(HexGet, payload)
}

// hexRule expects in[0] to be the HEX marker.
func hexRule(in []byte) result[HexRecord] {
	for i := 1; i < len(in); i++ {
		c := in[i]
		if c == '\n' {
			return decodeHexDigits(in[1:i], i+1)
		}
		if i > maxHexDigits {
			return relay[HexRecord](reject[struct{}]("HEX record longer than %d digits", maxHexDigits), i)
		}
		if fromHexChar(c) < 0 {
			return relay[HexRecord](reject[struct{}]("HEX record byte 0x%02X", c), i)
		}
	}
	return more[HexRecord]("HEX record")
}

func decodeHexDigits(digits []byte, n int) result[HexRecord] {
	if len(digits) < 3 || len(digits)%2 == 0 {
		return reject[HexRecord]("HEX record with %d digits", len(digits))
	}
	raw := make([]byte, (len(digits)-1)/2)
	if _, err := hex.Decode(raw, digits[1:]); err != nil {
		return reject[HexRecord]("HEX record: %v", err)
	}
	cmd := byte(fromHexChar(digits[0]))
	rec := HexRecord{
		Command:  HexCommand(cmd),
		Data:     raw[:len(raw)-1],
		Checksum: raw[len(raw)-1],
	}
	rec.Valid = cmd+Checksum(raw) == hexChecksumTarget
	return accept(rec, n)
}

func fromHexChar(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return int(c - 'A' + 10)
	}
	return -1
}
