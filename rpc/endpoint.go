package rpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sfsam/nvgrid/wire"
)

// Message kinds defined by the msgpack-rpc framing.
const (
	msgRequest      = 0
	msgResponse     = 1
	msgNotification = 2
)

var (
	ErrClosed = errors.New("rpc: endpoint closed")
)

// NotifyFunc receives notifications from the peer. It runs on the read
// loop goroutine; a slow handler stalls the connection.
type NotifyFunc func(method string, args []wire.Value)

type callResult struct {
	value wire.Value
	err   error
}

// Endpoint is one side of a msgpack-rpc connection. Requests,
// responses and notifications share the stream; the read loop
// correlates responses to in-flight calls by message id and hands
// notifications to the registered handler. Writes from any goroutine
// are serialized.
type Endpoint struct {
	rw     io.ReadWriteCloser
	notify NotifyFunc

	writeMu sync.Mutex
	bw      *bufio.Writer
	enc     *msgpack.Encoder

	mu      sync.Mutex
	nextID  uint32
	pending map[uint32]chan callResult
	closed  bool

	done chan struct{}
	err  error
}

// NewEndpoint starts the read loop over rw. The notify handler may be
// nil, dropping all notifications.
func NewEndpoint(rw io.ReadWriteCloser, notify NotifyFunc) *Endpoint {
	bw := bufio.NewWriter(rw)
	e := &Endpoint{
		rw:      rw,
		notify:  notify,
		bw:      bw,
		enc:     msgpack.NewEncoder(bw),
		pending: make(map[uint32]chan callResult),
		done:    make(chan struct{}),
	}
	go e.readLoop()
	return e
}

// Done is closed once the connection is torn down, by Close or by a
// read failure. Err reports the cause afterwards.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Err returns the terminal error, nil before Done is closed and after
// a clean Close.
func (e *Endpoint) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == ErrClosed || e.err == io.EOF {
		return nil
	}
	return e.err
}

// Close tears the connection down and fails all in-flight calls.
func (e *Endpoint) Close() error {
	e.fail(ErrClosed)
	return e.rw.Close()
}

// Call sends a request and waits for the matching response. The result
// is the peer's response payload; a peer-reported error comes back as
// a *CallError.
func (e *Endpoint) Call(ctx context.Context, method string, params ...any) (wire.Value, error) {
	ch := make(chan callResult, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return wire.Value{}, ErrClosed
	}
	e.nextID++
	id := e.nextID
	e.pending[id] = ch
	e.mu.Unlock()

	if err := e.writeRequest(id, method, params); err != nil {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		return wire.Value{}, fmt.Errorf("rpc: send %s: %w", method, err)
	}

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		return wire.Value{}, ctx.Err()
	}
}

// Notify sends a notification; no response will come back.
func (e *Endpoint) Notify(method string, params ...any) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := e.encodeBody(msgNotification, 3, func() error {
		if err := e.enc.EncodeString(method); err != nil {
			return err
		}
		return e.encodeParams(params)
	}); err != nil {
		return fmt.Errorf("rpc: send %s: %w", method, err)
	}
	return nil
}

func (e *Endpoint) writeRequest(id uint32, method string, params []any) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	return e.encodeBody(msgRequest, 4, func() error {
		if err := e.enc.EncodeUint(uint64(id)); err != nil {
			return err
		}
		if err := e.enc.EncodeString(method); err != nil {
			return err
		}
		return e.encodeParams(params)
	})
}

// writeErrorResponse answers a request this endpoint does not serve.
func (e *Endpoint) writeErrorResponse(id int64, message string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	return e.encodeBody(msgResponse, 4, func() error {
		if err := e.enc.EncodeInt(id); err != nil {
			return err
		}
		if err := e.enc.EncodeString(message); err != nil {
			return err
		}
		return e.enc.EncodeNil()
	})
}

// encodeBody writes one framed message under writeMu: the array
// header, the kind tag, the rest via body, then a flush.
func (e *Endpoint) encodeBody(kind int, elems int, body func() error) error {
	if err := e.enc.EncodeArrayLen(elems); err != nil {
		return err
	}
	if err := e.enc.EncodeInt(int64(kind)); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return e.bw.Flush()
}

func (e *Endpoint) encodeParams(params []any) error {
	if err := e.enc.EncodeArrayLen(len(params)); err != nil {
		return err
	}
	for _, p := range params {
		if err := e.enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

func (e *Endpoint) readLoop() {
	dec := wire.NewDecoder(bufio.NewReader(e.rw))
	for {
		v, err := dec.Decode()
		if err != nil {
			if err != io.EOF && !isNetworkClosed(err) {
				log.Printf("rpc: read failed: %v", err)
			}
			e.fail(err)
			return
		}
		e.route(v)
	}
}

func (e *Endpoint) route(v wire.Value) {
	msg, ok := v.Array()
	if !ok || len(msg) == 0 {
		log.Printf("rpc: malformed message - %s", v)
		return
	}
	kind, ok := msg[0].Int()
	if !ok {
		log.Printf("rpc: malformed message - %s", v)
		return
	}

	switch kind {
	case msgResponse:
		if len(msg) != 4 {
			log.Printf("rpc: malformed response - %s", v)
			return
		}
		e.finishCall(msg[1], msg[2], msg[3])

	case msgNotification:
		if len(msg) != 3 {
			log.Printf("rpc: malformed notification - %s", v)
			return
		}
		method, ok := msg[1].Str()
		if !ok {
			log.Printf("rpc: malformed notification - %s", v)
			return
		}
		args, _ := msg[2].Array()
		if e.notify != nil {
			e.notify(method, args)
		}

	case msgRequest:
		if len(msg) != 4 {
			log.Printf("rpc: malformed request - %s", v)
			return
		}
		id, _ := msg[1].Int()
		method, _ := msg[2].Str()
		log.Printf("rpc: rejecting request - method=%s", method)
		if err := e.writeErrorResponse(id, "method not supported"); err != nil {
			log.Printf("rpc: send error response failed: %v", err)
		}

	default:
		log.Printf("rpc: unknown message kind %d", kind)
	}
}

func (e *Endpoint) finishCall(idv, errv, result wire.Value) {
	id, ok := idv.Int()
	if !ok {
		log.Printf("rpc: response with non-integer id - %s", idv)
		return
	}

	e.mu.Lock()
	ch := e.pending[uint32(id)]
	delete(e.pending, uint32(id))
	e.mu.Unlock()

	if ch == nil {
		log.Printf("rpc: response for unknown call id %d", id)
		return
	}

	if errv.Kind() != wire.KindNil {
		ch <- callResult{err: newCallError(errv)}
		return
	}
	ch <- callResult{value: result}
}

// fail records the terminal error once, fails every in-flight call and
// closes done.
func (e *Endpoint) fail(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.err = err
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, ch := range pending {
		ch <- callResult{err: ErrClosed}
	}
	close(e.done)
}

func isNetworkClosed(err error) bool {
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	ne, ok := err.(net.Error)
	return ok && !ne.Timeout()
}

// CallError is an error response from the peer. The editor reports
// errors as [type, message] pairs; Message holds the text when the
// response has that shape, and Value always holds the raw payload.
type CallError struct {
	Value   wire.Value
	Message string
}

func newCallError(v wire.Value) *CallError {
	ce := &CallError{Value: v}
	if pair, ok := v.Array(); ok && len(pair) == 2 {
		if msg, ok := pair[1].Str(); ok {
			ce.Message = msg
			return ce
		}
	}
	ce.Message = v.String()
	return ce
}

func (e *CallError) Error() string {
	return "rpc: remote error: " + e.Message
}
