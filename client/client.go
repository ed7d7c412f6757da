// Package client speaks the line protocol from the client side.
// It backs the interactive cmd/client binary and the protocol tests.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func New(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

// Dial connects to a server at address ("host:port").
func Dial(ctx context.Context, address string) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	return New(conn), nil
}

// SetTimeout bounds every following read and write.
func (c *Client) SetTimeout(d time.Duration) error {
	return c.conn.SetDeadline(time.Now().Add(d))
}

// Send writes one line of input.
func (c *Client) Send(line string) error {
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

// Expect reads exactly len(text) bytes and fails unless they equal text.
func (c *Client) Expect(text string) error {
	buf := make([]byte, len(text))
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return fmt.Errorf("waiting for %q: %w", text, err)
	}
	if string(buf) != text {
		return fmt.Errorf("expected %q, got %q", text, buf)
	}
	return nil
}

// ReadLine returns the next server line without its terminator.
func (c *Client) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return line, err
	}
	return line[:len(line)-1], nil
}

// Read exposes the buffered server stream for interactive copying.
func (c *Client) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Write passes raw client input to the server.
func (c *Client) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
