package vedirect

import (
	"bytes"
	"errors"

	"go.uber.org/zap"
)

// DefaultMaxFrameSize bounds how long a frame may stay Incomplete before the
// scanner gives up on it. Real controllers send frames of a few hundred bytes.
const DefaultMaxFrameSize = 1024

// FrameScanner 为 bufio.Scanner 提供 Split 函数，用于连续的串口/TCP 字节流
type FrameScanner struct {
	maxFrameSize int
	logger       *zap.Logger
}

// NewFrameScanner creates a scanner helper. maxFrameSize <= 0 selects
// DefaultMaxFrameSize.
func NewFrameScanner(maxFrameSize int, logger *zap.Logger) *FrameScanner {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameScanner{maxFrameSize: maxFrameSize, logger: logger}
}

// SplitFunc 是用于 bufio.Scanner 解析 VE.Direct 流的分割函数。
// Each token is either one HEX record (starting with ':') or one complete,
// checksum-valid text frame (starting with CRLF). Garbage is skipped, and a
// frame with a bad checksum is dropped so the stream resynchronizes on the
// next delimiter.
func (fs *FrameScanner) SplitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. HEX 报文
	if data[0] == hexMarker {
		_, n, err := ParseHex(data)
		switch {
		case err == nil:
			return n, data[:n], nil
		case errors.Is(err, Incomplete):
			if atEOF {
				return len(data), nil, nil
			}
			return 0, nil, nil
		default:
			// 不是 HEX 报文，跳过标记继续搜索
			return 1, nil, nil
		}
	}

	// 2. 搜索帧起始 "\r\n" 或 HEX 标记 ':'
	start := bytes.Index(data, crlf)
	if hx := bytes.IndexByte(data, hexMarker); hx >= 0 && (start < 0 || hx < start) {
		start = hx
	}
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// A trailing CR may be the first half of a delimiter.
		if data[len(data)-1] == '\r' {
			return len(data) - 1, nil, nil
		}
		return len(data), nil, nil
	}
	// 如果在起始符之前发现垃圾数据，跳过它们
	if start > 0 {
		return start, nil, nil
	}

	// 3. 解析以 CRLF 开头的一帧
	_, n, err := ParseFrame(data)
	switch {
	case err == nil:
		return n, data[:n], nil
	case errors.Is(err, Incomplete):
		if atEOF {
			return len(data), nil, nil
		}
		if len(data) >= fs.maxFrameSize {
			fs.logger.Warn("Frame exceeds max size, resynchronizing", zap.Int("buffered", len(data)), zap.Int("max", fs.maxFrameSize))
			return len(crlf), nil, nil
		}
		return 0, nil, nil
	case errors.Is(err, Failure):
		// 校验失败。丢弃整帧，从下一个分隔符重新同步
		fs.logger.Warn("Dropping frame", zap.Error(err), zap.Int("len", n))
		return n, nil, nil
	default:
		// 语法不匹配，跳过当前分隔符
		return len(crlf), nil, nil
	}
}
