package vedirect

import (
	"errors"
	"fmt"
)

const (
	checksumLabel = "Checksum"
	hexMarker     = ':'

	// VE.Direct documents 9 and 33 byte buffers for labels and values; the
	// limits below leave headroom while still bounding garbage.
	maxLabelLen = 16
	maxValueLen = 64
)

// outcome tags how a grammar rule ended.
type outcome uint8

const (
	done outcome = iota
	// needMore: valid prefix, input ended before the rule could decide.
	needMore
	// rejected: bytes are not frame syntax.
	rejected
	// failed: syntax matched but an invariant did not hold.
	failed
)

// result is what every grammar rule returns. On done, n counts the bytes the
// rule consumed; otherwise n is the offset the rule stopped at.
type result[T any] struct {
	value   T
	n       int
	outcome outcome
	reason  string
}

func accept[T any](v T, n int) result[T] {
	return result[T]{value: v, n: n}
}

func more[T any](what string) result[T] {
	return result[T]{outcome: needMore, reason: what}
}

func reject[T any](format string, args ...any) result[T] {
	return result[T]{outcome: rejected, reason: fmt.Sprintf(format, args...)}
}

// relay carries a non-done result of one rule out through another, rebasing
// its offset onto the caller's input.
func relay[T, U any](r result[U], offset int) result[T] {
	return result[T]{n: offset + r.n, outcome: r.outcome, reason: r.reason}
}

func (r result[T]) err() error {
	switch r.outcome {
	case done:
		return nil
	case needMore:
		return errorf(Incomplete, "%s at offset %d", r.reason, r.n)
	case rejected:
		return errorf(NoMatch, "%s at offset %d", r.reason, r.n)
	default:
		return errorf(Failure, "%s", r.reason)
	}
}

// ParseFrame parses exactly one text frame from the start of input, which
// must begin with the CRLF that opens the frame (or with HEX records in front
// of it). It returns the frame and the number of bytes it spans. On Failure the
// count still spans the rejected frame so stream readers can step over it.
func ParseFrame(input []byte) (Frame, int, error) {
	r := frameRule(input)
	if r.outcome == failed {
		return Frame{}, r.n, r.err()
	}
	if r.outcome != done {
		return Frame{}, 0, r.err()
	}
	return r.value, r.n, nil
}

// parseFrames takes the first frame and then as many complete frames as
// follow it. Only a checksum failure after the first frame aborts the call; a
// partial or foreign tail simply ends the sequence.
func parseFrames(input []byte) ([]Frame, int, error) {
	first, n, err := ParseFrame(input)
	if err != nil {
		return nil, 0, err
	}
	frames := []Frame{first}
	total := n
	for total < len(input) {
		f, n, err := ParseFrame(input[total:])
		if err != nil {
			if errors.Is(err, Failure) {
				return nil, 0, fmt.Errorf("frame %d: %w", len(frames)+1, err)
			}
			break
		}
		frames = append(frames, f)
		total += n
	}
	return frames, total, nil
}

func frameRule(in []byte) result[Frame] {
	var (
		f   Frame
		sum byte
		pos int
	)
	for {
		for pos < len(in) && in[pos] == hexMarker {
			h := hexRule(in[pos:])
			if h.outcome != done {
				return relay[Frame](h, pos)
			}
			f.Hex = append(f.Hex, h.value)
			pos += h.n
		}

		start := pos
		d := delimiterRule(in[pos:])
		if d.outcome != done {
			return relay[Frame](d, pos)
		}
		pos += d.n

		l := labelRule(in[pos:])
		if l.outcome != done {
			return relay[Frame](l, pos)
		}
		pos += l.n

		if l.value == checksumLabel {
			if pos >= len(in) {
				return relay[Frame](more[byte]("checksum byte"), pos)
			}
			pos++
			sum += Checksum(in[start:pos])
			if sum != 0 {
				return result[Frame]{
					n:       pos,
					outcome: failed,
					reason:  fmt.Sprintf("checksum mismatch: frame of %d fields sums to 0x%02X", len(f.Fields), sum),
				}
			}
			return accept(f, pos)
		}

		v := valueRule(in[pos:])
		if v.outcome != done {
			return relay[Frame](v, pos)
		}
		pos += v.n
		sum += Checksum(in[start:pos])
		f.Fields = append(f.Fields, Field{Label: l.value, Value: v.value})
	}
}

func delimiterRule(in []byte) result[struct{}] {
	if len(in) == 0 {
		return more[struct{}]("frame delimiter")
	}
	if in[0] != '\r' {
		return reject[struct{}]("expected CR, got 0x%02X", in[0])
	}
	if len(in) < 2 {
		return more[struct{}]("frame delimiter")
	}
	if in[1] != '\n' {
		return reject[struct{}]("expected LF after CR, got 0x%02X", in[1])
	}
	return accept(struct{}{}, 2)
}

// labelRule consumes the label and the TAB after it.
func labelRule(in []byte) result[string] {
	for i, c := range in {
		if c == '\t' {
			if i == 0 {
				return reject[string]("empty label")
			}
			return accept(string(in[:i]), i+1)
		}
		if i >= maxLabelLen {
			return reject[string]("label longer than %d bytes", maxLabelLen)
		}
		if c < 0x21 || c > 0x7e {
			return reject[string]("label byte 0x%02X", c)
		}
	}
	return more[string]("label")
}

// valueRule stops in front of the CR of the next delimiter or the marker of
// an interleaved HEX record; neither belongs to the value.
func valueRule(in []byte) result[string] {
	for i, c := range in {
		switch c {
		case '\r', hexMarker:
			return accept(string(in[:i]), i)
		case '\n':
			return reject[string]("bare LF in value")
		}
		if i >= maxValueLen {
			return reject[string]("value longer than %d bytes", maxValueLen)
		}
	}
	return more[string]("value")
}
