package testutil

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/udisondev/msgo/internal/crypto"
	"github.com/udisondev/msgo/internal/handshake"
)

// Client - тестовый клиент: читает hello, поднимает клиентскую криптографию
// и обменивается зашифрованными пакетами с сервером.
type Client struct {
	t       testing.TB
	conn    net.Conn
	crypto  *crypto.EndpointCrypto
	hello   handshake.Hello
	timeout time.Duration
}

// NewClient подключается к addr и читает hello.
// Соединение закрывается через t.Cleanup.
func NewClient(t testing.TB, addr string, suite crypto.Suite) (*Client, error) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := &Client{t: t, conn: conn, timeout: 5 * time.Second}
	if err := c.readHello(suite); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read hello: %w", err)
	}
	return c, nil
}

func (c *Client) readHello(suite crypto.Suite) error {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	prefix := make([]byte, 2)
	if _, err := io.ReadFull(c.conn, prefix); err != nil {
		return fmt.Errorf("read length prefix: %w", err)
	}
	total, err := handshake.FrameLength(prefix)
	if err != nil {
		return err
	}

	frame := make([]byte, total)
	copy(frame, prefix)
	if _, err := io.ReadFull(c.conn, frame[2:]); err != nil {
		return fmt.Errorf("read hello body: %w", err)
	}

	c.hello, err = handshake.Parse(frame)
	if err != nil {
		return err
	}

	c.crypto, err = crypto.NewClientCrypto(suite, c.hello.Version, c.hello.ClientIV[:], c.hello.ServerIV[:])
	if err != nil {
		return fmt.Errorf("client crypto: %w", err)
	}
	return nil
}

// Hello возвращает полученный hello.
func (c *Client) Hello() handshake.Hello {
	return c.hello
}

// Conn возвращает сырое соединение (для отправки мусора в тестах).
func (c *Client) Conn() net.Conn {
	return c.conn
}

// SendPacket шифрует и отправляет один пакет.
func (c *Client) SendPacket(payload []byte) error {
	frame := make([]byte, crypto.FrameSize(len(payload)))
	if err := c.crypto.EncryptAndPack(frame, payload); err != nil {
		return fmt.Errorf("encrypt packet: %w", err)
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// ReadPacket читает и расшифровывает один пакет.
func (c *Client) ReadPacket() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	header := make([]byte, crypto.HeaderSize)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	length, ok, err := c.crypto.TryGetLength(header)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid header %x", header)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if err := c.crypto.Decrypt(body); err != nil {
		return nil, fmt.Errorf("decrypt body: %w", err)
	}
	return body, nil
}

// Close закрывает соединение.
func (c *Client) Close() error {
	return c.conn.Close()
}
