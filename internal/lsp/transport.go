package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrMissingLength is returned for a message without a usable Content-Length.
var ErrMissingLength = errors.New("missing or zero Content-Length")

// ReadMessage reads one framed message (headers + body) from the reader.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			contentLength, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength <= 0 {
		return nil, ErrMissingLength
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// WriteMessage writes msg as one framed message.
func WriteMessage(w io.Writer, msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// Conn frames messages over a reader/writer pair. Writes may come from
// several goroutines.
type Conn struct {
	in  *bufio.Reader
	mu  sync.Mutex
	out io.Writer
}

// NewConn returns a Conn reading from in and writing to out.
func NewConn(in io.Reader, out io.Writer) *Conn {
	return &Conn{in: bufio.NewReader(in), out: out}
}

// Read returns the next incoming message.
func (c *Conn) Read() (*Message, error) {
	body, err := ReadMessage(c.in)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, &RPCError{Code: CodeParseError, Message: err.Error()}
	}
	return &msg, nil
}

// Reply answers the request with the given id.
func (c *Conn) Reply(id json.RawMessage, result interface{}) error {
	return c.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

// ReplyError answers the request with the given id with an error.
func (c *Conn) ReplyError(id json.RawMessage, rpcErr *RPCError) error {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return c.write(ErrorResponse{JSONRPC: "2.0", ID: id, Error: rpcErr})
}

func (c *Conn) write(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteMessage(c.out, msg)
}
