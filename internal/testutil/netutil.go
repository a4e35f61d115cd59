package testutil

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// PipeConn создаёт пару net.Conn соединений через net.Pipe для тестирования.
// Автоматически закрывает соединения при завершении теста.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// ReadFull читает ровно n байт с deadline.
func ReadFull(t testing.TB, conn net.Conn, n int, timeout time.Duration) []byte {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buf
}

// FaultConn оборачивает net.Conn и возвращает заданную ошибку из Read/Write
// после вызова Fail.
type FaultConn struct {
	net.Conn

	mu  sync.Mutex
	err error
}

// NewFaultConn создаёт обёртку.
func NewFaultConn(conn net.Conn) *FaultConn {
	return &FaultConn{Conn: conn}
}

// Fail включает ошибку для всех последующих операций. Блокированный Read
// пробуждается через истёкший deadline.
func (c *FaultConn) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	_ = c.Conn.SetDeadline(time.Unix(1, 0))
}

func (c *FaultConn) fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *FaultConn) Read(b []byte) (int, error) {
	if err := c.fault(); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(b)
	if ferr := c.fault(); ferr != nil {
		return n, ferr
	}
	return n, err
}

func (c *FaultConn) Write(b []byte) (int, error) {
	if err := c.fault(); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// SetWriteDeadline игнорирует deadline после Fail, чтобы ошибка дошла до Write.
func (c *FaultConn) SetWriteDeadline(t time.Time) error {
	if c.fault() != nil {
		return nil
	}
	return c.Conn.SetWriteDeadline(t)
}
