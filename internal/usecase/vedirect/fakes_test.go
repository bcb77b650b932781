package vedirect

import (
	"sync"

	"vedirect-gateway/internal/protocol/vedirect"
)

type fakeConn struct {
	addr    string
	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte{}, b...))
	return len(b), nil
}

type recordingDispatcher struct {
	payloads []interface{}
}

func (d *recordingDispatcher) Dispatch(data interface{}) bool {
	d.payloads = append(d.payloads, data)
	return true
}

func mpptFields(serial, cs string) []vedirect.Field {
	return []vedirect.Field{
		{Label: "PID", Value: "0xA053"},
		{Label: "SER#", Value: serial},
		{Label: "V", Value: "13230"},
		{Label: "I", Value: "-870"},
		{Label: "CS", Value: cs},
		{Label: "H21", Value: "95"},
	}
}

func ptr[T any](v T) *T { return &v }
