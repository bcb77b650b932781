// Package source reads VE.Direct streams from local serial ports.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	goserial "go.bug.st/serial.v1"
	"go.uber.org/zap"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/protocol/vedirect"
	"vedirect-gateway/internal/usecase"
)

// DefaultRetryInterval 串口打开失败或断开后的重试间隔
const DefaultRetryInterval = 5 * time.Second

// TokenHandler 处理切分出的单个报文
type TokenHandler interface {
	HandleToken(conn usecase.Conn, token []byte) error
}

// OpenFunc 打开串口
type OpenFunc func(name string, baud int) (io.ReadWriteCloser, error)

// Open 以 VE.Direct 的 8N1 模式打开串口
func Open(name string, baud int) (io.ReadWriteCloser, error) {
	mode := &goserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	return goserial.Open(name, mode)
}

// portConn 将串口包装为 usecase.Conn
type portConn struct {
	name string
	port io.ReadWriteCloser
	once sync.Once
}

func (c *portConn) RemoteAddr() string { return "serial://" + c.name }

func (c *portConn) Write(b []byte) (int, error) { return c.port.Write(b) }

func (c *portConn) Close() error {
	var err error
	c.once.Do(func() { err = c.port.Close() })
	return err
}

type SerialSource struct {
	name          string
	baud          int
	maxFrameSize  int
	open          OpenFunc
	RetryInterval time.Duration
	handler       TokenHandler
	logger        *zap.Logger
}

func NewSerialSource(cfg config.SerialPortConfig, maxFrameSize int, h TokenHandler, logger *zap.Logger) *SerialSource {
	return &SerialSource{
		name:          cfg.Name,
		baud:          cfg.Baud,
		maxFrameSize:  maxFrameSize,
		open:          Open,
		RetryInterval: DefaultRetryInterval,
		handler:       h,
		logger:        logger.With(zap.String("port", cfg.Name)),
	}
}

// Run 持续读取串口直到 ctx 取消。读取出错时关闭串口并在 RetryInterval 后重新打开。
func (s *SerialSource) Run(ctx context.Context) error {
	for {
		port, err := s.open(s.name, s.baud)
		if err != nil {
			s.logger.Warn("Failed to open serial port", zap.Int("baud", s.baud), zap.Error(err))
		} else {
			s.logger.Info("Serial port opened", zap.Int("baud", s.baud))
			err = s.consume(ctx, &portConn{name: s.name, port: port})
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Serial port read stopped", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.RetryInterval):
		}
	}
}

// consume 读取一个已打开的串口直到出错或 EOF，返回时串口已关闭
func (s *SerialSource) consume(ctx context.Context, conn *portConn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = conn.Close()
	}()

	fs := vedirect.NewFrameScanner(s.maxFrameSize, s.logger)
	sc := bufio.NewScanner(conn.port)
	sc.Buffer(make([]byte, 0, 4096), bufio.MaxScanTokenSize)
	sc.Split(fs.SplitFunc)

	for sc.Scan() {
		if err := s.handler.HandleToken(conn, sc.Bytes()); err != nil {
			s.logger.Warn("Handle token failed", zap.Error(err))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", s.name, err)
	}
	return io.EOF
}

// RunAll 为每个串口启动一个 SerialSource，阻塞直到 ctx 取消
func RunAll(ctx context.Context, ports []config.SerialPortConfig, maxFrameSize int, h TokenHandler, logger *zap.Logger) {
	var wg sync.WaitGroup
	for _, p := range ports {
		p := p // per-iteration copy (go directive < 1.22)
		src := NewSerialSource(p, maxFrameSize, h, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Serial source stopped", zap.String("port", p.Name), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}
