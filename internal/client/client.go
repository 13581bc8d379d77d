// Package client implements the pulsemeterd control protocol client side.
//
// Responses come in two shapes: "OK <detail>" or "ERR <code> <message>" on a
// single line, or a bare "OK" followed by body lines terminated with a lone
// ".". The client hides that distinction behind Do.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/qpulse/pulsemeter/internal/errors"
)

// Client is a control protocol connection. Not safe for concurrent use; the
// protocol is strictly request/response.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a pulsemeterd control address.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Response is a parsed server reply.
type Response struct {
	// Detail is the text after "OK" for single-line replies.
	Detail string

	// Body holds the lines of a multi-line reply.
	Body []string
}

// Do sends one command and reads the full reply.
func (c *Client) Do(cmd string) (*Response, error) {
	if _, err := fmt.Fprintf(c.conn, "%s\n", cmd); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	status, err := c.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	status = strings.TrimSpace(status)

	switch {
	case status == "OK":
		// Bare OK: body follows.
		resp := &Response{}
		for {
			line, err := c.r.ReadString('\n')
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "." {
				return resp, nil
			}
			resp.Body = append(resp.Body, line)
		}

	case strings.HasPrefix(status, "OK "):
		return &Response{Detail: strings.TrimPrefix(status, "OK ")}, nil

	case strings.HasPrefix(status, "ERR "):
		return nil, parseErr(strings.TrimPrefix(status, "ERR "))

	default:
		return nil, fmt.Errorf("malformed response %q", status)
	}
}

// parseErr turns "ERR <code> <message>" remainder into a sentinel-wrapped
// error so callers can use errors.Is.
func parseErr(rest string) error {
	parts := strings.SplitN(rest, " ", 2)
	code, convErr := strconv.Atoi(parts[0])
	if convErr != nil {
		return fmt.Errorf("server error: %s", rest)
	}
	msg := ""
	if len(parts) > 1 {
		msg = parts[1]
	}
	return fmt.Errorf("%s: %w", msg, errors.CodeToError(int32(code)))
}
