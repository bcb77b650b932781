// Package vedirect decodes the Victron VE.Direct text protocol, including the
// HEX records that controllers interleave with it, into typed records.
package vedirect

// Field is one label/value line of a text frame.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Frame is one checksum-validated text block in wire order, together with the
// HEX records that were found alongside it.
type Frame struct {
	Fields []Field     `json:"fields"`
	Hex    []HexRecord `json:"hex,omitempty"`
}

// Get returns the value of the last field carrying label.
func (f Frame) Get(label string) (string, bool) {
	for i := len(f.Fields) - 1; i >= 0; i-- {
		if f.Fields[i].Label == label {
			return f.Fields[i].Value, true
		}
	}
	return "", false
}
