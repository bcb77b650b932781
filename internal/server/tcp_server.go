package server

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/gnet/v2"

	"go.uber.org/zap"

	"vedirect-gateway/internal/config"
	protocol "vedirect-gateway/internal/protocol/vedirect"
	"vedirect-gateway/internal/usecase"
)

// TokenHandler 处理切分出的单个报文，由 usecase/vedirect.Handler 实现
type TokenHandler interface {
	HandleToken(conn usecase.Conn, token []byte) error
}

// SourceCloser 在连接关闭时清理该连接上的设备
type SourceCloser interface {
	RemoveSource(addr string)
}

// connContext 保存每个连接的状态
type connContext struct {
	buffer  []byte
	scanner *protocol.FrameScanner
	addr    string
}

type GnetConnWrapper struct {
	conn gnet.Conn
	addr string
}

func (w *GnetConnWrapper) RemoteAddr() string {
	return w.addr
}

// Close 可在事件循环之外调用 (例如设备超时检查)
func (w *GnetConnWrapper) Close() error {
	return w.conn.CloseWithCallback(nil)
}

func (w *GnetConnWrapper) Write(b []byte) (n int, err error) {
	return w.conn.Write(b)
}

type TCPServer struct {
	gnet.BuiltinEventEngine

	addr         string
	multicore    bool
	maxFrameSize int
	logger       *zap.Logger
	handler      TokenHandler
	sources      SourceCloser
}

func NewTCPServer(cfg config.ServerConfig, logger *zap.Logger, h TokenHandler, sources SourceCloser) *TCPServer {
	return &TCPServer{
		addr:         fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port),
		multicore:    cfg.Multicore,
		maxFrameSize: cfg.MaxFrameSize,
		logger:       logger,
		handler:      h,
		sources:      sources,
	}
}

func (s *TCPServer) OnBoot(eng gnet.Engine) (action gnet.Action) {
	s.logger.Info("TCP Server is booting", zap.String("address", s.addr))
	return
}

func (s *TCPServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	s.logger.Info("New connection opened", zap.String("remote_addr", c.RemoteAddr().String()))

	// 初始化连接上下文
	ctx := &connContext{
		buffer:  make([]byte, 0, 4096),
		scanner: protocol.NewFrameScanner(s.maxFrameSize, s.logger),
		addr:    c.RemoteAddr().String(),
	}
	c.SetContext(ctx)

	return
}

func (s *TCPServer) OnTraffic(c gnet.Conn) (action gnet.Action) {
	ctx := c.Context().(*connContext)

	buf, _ := c.Next(-1)
	if len(buf) == 0 {
		return
	}
	ctx.buffer = append(ctx.buffer, buf...)
	s.drain(ctx, &GnetConnWrapper{conn: c, addr: ctx.addr})
	return
}

// drain 从连接缓冲区中切分出全部完整报文并交给 handler
func (s *TCPServer) drain(ctx *connContext, conn usecase.Conn) {
	for len(ctx.buffer) > 0 {
		advance, token, err := ctx.scanner.SplitFunc(ctx.buffer, false)
		if err != nil {
			s.logger.Error("Frame split error", zap.Error(err), zap.String("addr", ctx.addr))
			ctx.buffer = ctx.buffer[:0]
			return
		}
		if advance == 0 {
			// 需要更多数据
			return
		}

		if token != nil {
			if err := s.handler.HandleToken(conn, token); err != nil {
				s.logger.Warn("Handle token failed", zap.Error(err), zap.String("addr", ctx.addr))
			}
		}
		// 推进缓冲区 (跳过垃圾数据或已处理的报文)
		ctx.buffer = ctx.buffer[advance:]
	}
}

func (s *TCPServer) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	s.logger.Info("Connection closed", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
	if ctx, ok := c.Context().(*connContext); ok && s.sources != nil {
		s.sources.RemoveSource(ctx.addr)
	}
	return
}

func (s *TCPServer) OnShutdown(eng gnet.Engine) {
	s.logger.Info("TCP Server is shutting down")
}

func (s *TCPServer) Start(ctx context.Context) error {
	s.logger.Info("Starting TCP Server", zap.String("addr", s.addr))
	return gnet.Run(s, s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithLogger(s.logger.Sugar()),
		gnet.WithReusePort(true),
		gnet.WithTCPKeepAlive(time.Minute),
	)
}

func (s *TCPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping TCP Server...")
	return gnet.Stop(ctx, s.addr)
}
