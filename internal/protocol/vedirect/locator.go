package vedirect

import "bytes"

var crlf = []byte{'\r', '\n'}

// Locate returns input starting at the first CRLF, discarding whatever a
// previous read boundary left in front of it. Without any CRLF the delimiter
// may still be on its way, so the result is Incomplete.
func Locate(input []byte) ([]byte, error) {
	idx := bytes.Index(input, crlf)
	if idx < 0 {
		return nil, errorf(Incomplete, "no frame delimiter in %d bytes", len(input))
	}
	return input[idx:], nil
}
