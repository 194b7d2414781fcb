package wyoming

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
)

// Client is one framed TCP connection to a Wyoming satellite. Reads happen
// from a single goroutine; writes are serialized so event forwarding and
// paced audio streaming can interleave safely.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer
}

// DialClient connects to a satellite's TCP endpoint.
func DialClient(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial satellite %s: %w", address, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection, e.g. one accepted from a
// listener or an in-memory pipe in tests.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

func (c *Client) Read() (Message, error) {
	return ReadMessage(c.reader)
}

func (c *Client) Write(message Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteMessage(c.writer, message)
}

// WriteEvent marshals data and writes it as one message.
func (c *Client) WriteEvent(messageType string, data any) error {
	message, err := NewMessage(messageType, data)
	if err != nil {
		return err
	}
	return c.Write(message)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
