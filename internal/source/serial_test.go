package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/protocol/vedirect"
	"vedirect-gateway/internal/usecase"
)

type fakePort struct {
	*bytes.Reader
	mu     sync.Mutex
	closed bool
	out    bytes.Buffer
}

func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type collectHandler struct {
	mu     sync.Mutex
	tokens [][]byte
	addrs  []string
}

func (h *collectHandler) HandleToken(conn usecase.Conn, token []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = append(h.tokens, append([]byte{}, token...))
	h.addrs = append(h.addrs, conn.RemoteAddr())
	return nil
}

func (h *collectHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tokens)
}

func capture() []byte {
	var b []byte
	b = append(b, "\x00?"...)
	for i := 0; i < 3; i++ {
		b = append(b, vedirect.EncodeFrame([]vedirect.Field{{Label: "V", Value: "13230"}, {Label: "H21", Value: "95"}})...)
	}
	return b
}

func TestConsumeSplitsFrames(t *testing.T) {
	h := &collectHandler{}
	s := NewSerialSource(config.SerialPortConfig{Name: "/dev/ttyUSB0", Baud: 19200}, 0, h, zap.NewNop())
	port := &fakePort{Reader: bytes.NewReader(capture())}

	err := s.consume(context.Background(), &portConn{name: "/dev/ttyUSB0", port: port})
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, h.tokens, 3)
	assert.Equal(t, "serial:///dev/ttyUSB0", h.addrs[0])
	assert.Eventually(t, func() bool {
		port.mu.Lock()
		defer port.mu.Unlock()
		return port.closed
	}, time.Second, 5*time.Millisecond)
}

func TestRunRetriesUntilCancelled(t *testing.T) {
	h := &collectHandler{}
	s := NewSerialSource(config.SerialPortConfig{Name: "/dev/ttyUSB1", Baud: 19200}, 0, h, zap.NewNop())
	s.RetryInterval = time.Millisecond

	var mu sync.Mutex
	attempts := 0
	s.open = func(name string, baud int) (io.ReadWriteCloser, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return nil, errors.New("no such device")
		}
		return &fakePort{Reader: bytes.NewReader(capture())}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return h.count() >= 6 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPortConnCloseOnce(t *testing.T) {
	port := &fakePort{Reader: bytes.NewReader(nil)}
	c := &portConn{name: "ttyS0", port: port}

	n, err := c.Write(vedirect.EncodeHex(vedirect.HexPing, nil))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, ":154\n", port.out.String())

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.True(t, port.closed)
}
