package vedirect

import (
	"errors"
	"fmt"
)

// ExtractError classifies why no complete frame could be taken from a buffer.
// Detailed errors returned by this package wrap one of the three values, so
// errors.Is(err, vedirect.Incomplete) is the way to branch on them.
type ExtractError uint8

const (
	// Incomplete 缓冲区中帧尚未结束，调用方需要追加数据后重试
	Incomplete ExtractError = iota + 1
	// NoMatch 数据不符合协议语法 (错误波特率、错误设备或噪声)
	NoMatch
	// Failure 语法匹配但校验失败 (数据损坏)
	Failure
)

func (e ExtractError) Error() string {
	switch e {
	case Incomplete:
		return "vedirect: incomplete frame"
	case NoMatch:
		return "vedirect: no frame match"
	case Failure:
		return "vedirect: frame failure"
	default:
		return fmt.Sprintf("vedirect: extract error %d", uint8(e))
	}
}

// Kind reports the ExtractError wrapped by err.
func Kind(err error) (ExtractError, bool) {
	var kind ExtractError
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}

func errorf(kind ExtractError, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
