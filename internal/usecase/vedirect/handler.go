package vedirect

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"vedirect-gateway/internal/protocol/vedirect"
	"vedirect-gateway/internal/usecase"
)

// 消息类型
const (
	PayloadText = "VEDIRECT_TEXT"
	PayloadHex  = "VEDIRECT_HEX"
)

// ErrInvalidHex HEX 报文校验失败
var ErrInvalidHex = errors.New("invalid HEX checksum")

// Dispatcher 由 usecase.DataDispatcher 实现
type Dispatcher interface {
	Dispatch(data interface{}) bool
}

// HexMessage 是 HEX 报文的消息体
type HexMessage struct {
	vedirect.HexRecord
	Register *vedirect.Register `json:"register,omitempty"`
}

type Handler struct {
	Registry   *DeviceRegistry
	Dispatcher Dispatcher
	Filter     DeviceFilter
	// PingOnDiscover 发现新设备时发送 HEX ping，设备回复的版本号随 VEDIRECT_HEX 上报
	PingOnDiscover bool
	extractor      *vedirect.Extractor
	now            func() time.Time
	logger         *zap.Logger
}

func NewHandler(registry *DeviceRegistry, dispatcher Dispatcher, filter DeviceFilter, logger *zap.Logger) *Handler {
	return &Handler{
		Registry:   registry,
		Dispatcher: dispatcher,
		Filter:     filter,
		extractor:  vedirect.NewExtractor(logger),
		now:        time.Now,
		logger:     logger,
	}
}

// HandleToken 处理 FrameScanner 切分出的单个报文 (文本帧或 HEX 报文)
func (h *Handler) HandleToken(conn usecase.Conn, token []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			h.logger.Error("Panic in HandleToken",
				zap.Any("recover", r),
				zap.String("remote_addr", remoteAddr(conn)),
				zap.String("stack", string(stack)))
			err = fmt.Errorf("internal server error: %v", r)
		}
	}()

	if len(token) == 0 {
		return nil
	}
	if token[0] == ':' {
		return h.handleHex(conn, token)
	}
	return h.handleText(conn, token)
}

func (h *Handler) handleText(conn usecase.Conn, token []byte) error {
	frames, err := h.extractor.ExtractFrames(token)
	if err != nil {
		return fmt.Errorf("文本帧解析失败: %w", err)
	}

	var rejected error
	for _, f := range frames {
		rec := vedirect.BuildRecord(f)
		if h.Filter != nil {
			if err := h.Filter.Allow(rec); err != nil {
				h.logger.Debug("Device filtered", zap.String("remote_addr", remoteAddr(conn)), zap.Error(err))
				rejected = err
				continue
			}
		}

		key := deviceKey(conn, rec)
		obs := h.Registry.Observe(key, conn, rec)
		logger := h.logger.With(zap.String("device", key))

		if obs.StateChanged {
			logger.Info("Charger state changed",
				zap.Stringer("from", obs.PrevState),
				zap.Stringer("to", rec.ChargerState))
		}
		if obs.New && h.PingOnDiscover && conn != nil {
			if _, err := conn.Write(vedirect.EncodeHex(vedirect.HexPing, nil)); err != nil {
				logger.Warn("Failed to send HEX ping", zap.Error(err))
			}
		}
		for _, field := range f.Fields {
			if !vedirect.Known(field.Label) {
				logger.Debug("Unknown label", zap.String("label", field.Label), zap.String("value", field.Value))
			}
		}

		logger.Debug("Received Text Frame")
		if h.Dispatcher != nil {
			h.Dispatcher.Dispatch(usecase.MQPayload{
				Type:      PayloadText,
				Serial:    key,
				Source:    remoteAddr(conn),
				Timestamp: h.now(),
				Data:      rec,
			})
		}

		// 帧内穿插的 HEX 报文归属于该帧的设备
		for _, hr := range f.Hex {
			if err := h.dispatchHex(conn, key, hr); err != nil {
				logger.Warn("Dropped HEX record inside text frame", zap.Error(err))
			}
		}
	}
	return rejected
}

func (h *Handler) handleHex(conn usecase.Conn, token []byte) error {
	rec, _, err := vedirect.ParseHex(token)
	if err != nil {
		return fmt.Errorf("HEX 报文解析失败: %w", err)
	}

	key, ok := h.Registry.KeyForSource(remoteAddr(conn))
	if ok {
		h.Registry.Touch(key)
	} else {
		key = "addr:" + remoteAddr(conn)
	}
	return h.dispatchHex(conn, key, rec)
}

func (h *Handler) dispatchHex(conn usecase.Conn, key string, rec vedirect.HexRecord) error {
	if !rec.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidHex, rec)
	}

	msg := HexMessage{HexRecord: rec}
	if reg, ok := rec.Register(); ok {
		msg.Register = &reg
	}
	h.logger.Debug("Received HEX Record", zap.String("device", key), zap.Stringer("record", rec))

	if h.Dispatcher != nil {
		h.Dispatcher.Dispatch(usecase.MQPayload{
			Type:      PayloadHex,
			Serial:    key,
			Source:    remoteAddr(conn),
			Timestamp: h.now(),
			Data:      msg,
		})
	}
	return nil
}

// deviceKey 优先使用 SER#，BMV 等不上报序列号的设备使用来源地址
func deviceKey(conn usecase.Conn, rec vedirect.Record) string {
	if rec.SerialNumber != nil && *rec.SerialNumber != "" {
		return *rec.SerialNumber
	}
	return "addr:" + remoteAddr(conn)
}
