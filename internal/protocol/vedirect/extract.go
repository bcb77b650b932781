package vedirect

import (
	"errors"

	"go.uber.org/zap"
)

// Extractor runs the locate → parse → build pipeline over a buffer. It keeps
// no state between calls, so one Extractor can serve any number of goroutines.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor 创建提取器，logger 为 nil 时不输出日志
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractFrames returns every complete frame found after the first CRLF of
// input, or the first error met. The error wraps Incomplete, NoMatch or
// Failure.
func (e *Extractor) ExtractFrames(input []byte) ([]Frame, error) {
	adj, err := Locate(input)
	if err != nil {
		return nil, err
	}
	frames, _, err := parseFrames(adj)
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// ExtractRecords builds one Record per frame. Every extraction error is
// reported as NoMatch: callers of this entry point only learn that the call
// yielded no usable data.
func (e *Extractor) ExtractRecords(input []byte) ([]Record, error) {
	frames, err := e.ExtractFrames(input)
	if err != nil {
		if errors.Is(err, Incomplete) {
			e.logger.Debug("No complete frame in input yet", zap.Int("len", len(input)), zap.Error(err))
		} else {
			e.logger.Warn("No frames found in input on this call", zap.Int("len", len(input)), zap.Error(err))
		}
		return nil, NoMatch
	}
	records := make([]Record, 0, len(frames))
	for _, f := range frames {
		records = append(records, BuildRecord(f))
	}
	return records, nil
}

// ExtractFrames runs Extractor.ExtractFrames with the global zap logger.
func ExtractFrames(input []byte) ([]Frame, error) {
	return NewExtractor(zap.L()).ExtractFrames(input)
}

// ExtractRecords runs Extractor.ExtractRecords with the global zap logger.
func ExtractRecords(input []byte) ([]Record, error) {
	return NewExtractor(zap.L()).ExtractRecords(input)
}
