package dbclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ErrConnectionLost marks a dropped server connection. Every in-flight
// request fails with it, and the client stays dead: reconnecting to a new
// server instance would silently attach to a process without the original
// database locks.
var ErrConnectionLost = errors.New("dbclient: connection lost")

// RemoteError is a server-reported failure for one request. The channel
// itself remains usable.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("dbclient: server rejected %q: %s", e.Op, e.Message)
}

// Options configures a client connection.
type Options struct {
	// PipelineDepth is the maximum number of unacknowledged requests in
	// flight.
	PipelineDepth int
	// WireLog, when set, receives one entry per sent request and received
	// response. It is for post-hoc debugging only; it can never fail a
	// request.
	WireLog     *slog.Logger
	DialTimeout time.Duration
}

// call is one in-flight request awaiting its response slot.
type call struct {
	seq  uint64
	resp Response
	err  error

	once sync.Once
	done chan struct{}
}

func (c *call) complete(resp Response, err error) {
	c.once.Do(func() {
		c.resp = resp
		c.err = err
		close(c.done)
	})
}

// Client is the pipelined request/response client for the database server.
// All requests share one ordered TCP session; responses are matched to
// requests strictly by arrival order, never by correlation id.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	wireLog *slog.Logger

	// writeMu orders request transmission: a call enters pending and hits
	// the wire under the same critical section, so the pending queue always
	// mirrors wire order.
	writeMu sync.Mutex
	seq     uint64
	pending chan *call

	fatalOnce sync.Once
	closed    chan struct{}
	lostErr   error
}

// Dial connects to a discovered endpoint and starts the response reader.
func Dial(ctx context.Context, ep Endpoint, opts Options) (*Client, error) {
	if opts.PipelineDepth < 1 {
		opts.PipelineDepth = 1
	}
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	c := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		wireLog: opts.WireLog,
		pending: make(chan *call, opts.PipelineDepth),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends one request and blocks until its response arrives in FIFO
// order. A caller that gives up via ctx abandons its response slot; the slot
// is still consumed in order when the response arrives, so the channel never
// skews.
func (c *Client) Call(ctx context.Context, op string, args map[string]any) (json.RawMessage, error) {
	select {
	case <-c.closed:
		return nil, c.lostErr
	default:
	}

	c.writeMu.Lock()
	c.seq++
	req := Request{Seq: c.seq, Op: op, Args: args}
	ca := &call{seq: req.Seq, done: make(chan struct{})}

	// Entering pending blocks while the pipeline is at depth; that is the
	// flow-control point.
	select {
	case c.pending <- ca:
	case <-c.closed:
		c.writeMu.Unlock()
		return nil, c.lostErr
	case <-ctx.Done():
		c.writeMu.Unlock()
		return nil, ctx.Err()
	}

	err := writeRequest(c.conn, req)
	c.writeMu.Unlock()

	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrConnectionLost, err)
		ca.complete(Response{}, wrapped)
		c.fatal(wrapped)
		return nil, wrapped
	}
	c.logWire("send", "seq", req.Seq, "op", op)

	select {
	case <-ca.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if ca.err != nil {
		return nil, ca.err
	}
	if ca.resp.Status == StatusError {
		return nil, &RemoteError{Op: op, Message: ca.resp.Message}
	}
	return ca.resp.Data, nil
}

// Close shuts the channel down. In-flight requests fail with
// ErrConnectionLost.
func (c *Client) Close() error {
	c.fatal(ErrConnectionLost)
	return nil
}

// readLoop consumes responses and completes pending calls strictly in FIFO
// order. Any ordering anomaly is fatal to the session.
func (c *Client) readLoop() {
	for {
		resp, err := readResponse(c.reader)
		if err != nil {
			c.fatal(fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}

		var ca *call
		select {
		case ca = <-c.pending:
		default:
			c.fatal(fmt.Errorf("%w: unsolicited response seq %d", ErrConnectionLost, resp.Seq))
			return
		}

		if resp.Seq != ca.seq {
			wrapped := fmt.Errorf("%w: response seq %d does not match expected %d",
				ErrConnectionLost, resp.Seq, ca.seq)
			ca.complete(Response{}, wrapped)
			c.fatal(wrapped)
			return
		}

		c.logWire("recv", "seq", resp.Seq, "status", resp.Status)
		ca.complete(resp, nil)
	}
}

// fatal marks the session dead exactly once, closes the socket and fails
// every pending call.
func (c *Client) fatal(err error) {
	c.fatalOnce.Do(func() {
		c.lostErr = err
		close(c.closed)
		_ = c.conn.Close()

		// Drain after closed is visible; no new call can enter pending once
		// its writeMu holder observes the closed channel.
		for {
			select {
			case ca := <-c.pending:
				ca.complete(Response{}, err)
			default:
				return
			}
		}
	})
}

// logWire writes one wire-log entry. The wire log is best-effort by
// construction: slog handlers swallow writer errors.
func (c *Client) logWire(dir string, args ...any) {
	if c.wireLog == nil {
		return
	}
	c.wireLog.Info(dir, args...)
}
