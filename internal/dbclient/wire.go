package dbclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	// maxWireLine bounds one response line; the server streams bulk data
	// through files, not this channel.
	maxWireLine = 4 * 1024 * 1024
)

// ErrWireMessageTooLarge marks a response line exceeding maxWireLine.
var ErrWireMessageTooLarge = errors.New("dbclient: wire message too large")

// Request is one client command. Seq is assigned monotonically by the
// client; the server must echo it on the matching response.
type Request struct {
	Seq  uint64         `json:"seq"`
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// Response is the server's reply to exactly one request, delivered in
// request order.
type Response struct {
	Seq     uint64          `json:"seq"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// writeRequest encodes one request as a newline-delimited JSON envelope.
func writeRequest(w io.Writer, req Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	_, err = w.Write(payload)
	return err
}

// readResponse reads and decodes one response line. The line is accumulated
// buffer by buffer so a runaway line fails at the limit instead of being
// slurped whole.
func readResponse(r *bufio.Reader) (Response, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if err != bufio.ErrBufferFull {
			return Response{}, err
		}
		if len(line) > maxWireLine {
			return Response{}, ErrWireMessageTooLarge
		}
	}
	if len(line) > maxWireLine {
		return Response{}, ErrWireMessageTooLarge
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("dbclient: malformed response: %w", err)
	}
	if resp.Status != StatusOK && resp.Status != StatusError {
		return Response{}, fmt.Errorf("dbclient: response %d has invalid status %q", resp.Seq, resp.Status)
	}
	return resp, nil
}
