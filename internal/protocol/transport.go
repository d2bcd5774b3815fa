package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"battleship-p2p/internal/codec"
)

// DefaultMaxFrame caps a single wire message. Proof envelopes are well below this.
const DefaultMaxFrame = 1 << 20

// Conn carries whole messages between the two peers. Receive blocks; Close unblocks it.
type Conn interface {
	Send(msg codec.Message) error
	Receive() (codec.Message, error)
	Close() error
}

func encodeFrame(msg codec.Message, max int) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if len(data) > max {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}
	return data, nil
}

func decodeFrame(data []byte) (codec.Message, error) {
	var msg codec.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return codec.Message{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if err := msg.Validate(); err != nil {
		return codec.Message{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return msg, nil
}

// LineConn speaks newline-delimited JSON over a stream.
type LineConn struct {
	c   net.Conn
	sc  *bufio.Scanner
	max int
	wmu sync.Mutex
}

func NewLineConn(c net.Conn, maxFrame int) *LineConn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	sc := bufio.NewScanner(c)
	// the token limit is the larger of cap(buf) and max
	sc.Buffer(make([]byte, 0, min(4<<10, maxFrame)), maxFrame)
	return &LineConn{c: c, sc: sc, max: maxFrame}
}

func (l *LineConn) Send(msg codec.Message) error {
	data, err := encodeFrame(msg, l.max)
	if err != nil {
		return err
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if _, err := l.c.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return nil
}

func (l *LineConn) Receive() (codec.Message, error) {
	for l.sc.Scan() {
		line := l.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		return decodeFrame(line)
	}
	err := l.sc.Err()
	switch {
	case errors.Is(err, bufio.ErrTooLong):
		return codec.Message{}, fmt.Errorf("%w: over %d bytes", ErrFrameTooLarge, l.max)
	case err != nil:
		return codec.Message{}, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return codec.Message{}, ErrDisconnected
}

func (l *LineConn) Close() error { return l.c.Close() }

func (l *LineConn) RemoteAddr() net.Addr { return l.c.RemoteAddr() }

// WSConn sends one JSON message per WebSocket text frame.
type WSConn struct {
	c   *websocket.Conn
	max int
	wmu sync.Mutex
}

func NewWSConn(c *websocket.Conn, maxFrame int) *WSConn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	c.SetReadLimit(int64(maxFrame))
	return &WSConn{c: c, max: maxFrame}
}

func (w *WSConn) Send(msg codec.Message) error {
	data, err := encodeFrame(msg, w.max)
	if err != nil {
		return err
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if err := w.c.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return nil
}

func (w *WSConn) Receive() (codec.Message, error) {
	kind, data, err := w.c.ReadMessage()
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		return codec.Message{}, fmt.Errorf("%w: over %d bytes", ErrFrameTooLarge, w.max)
	case err != nil:
		return codec.Message{}, fmt.Errorf("%w: %w", ErrDisconnected, err)
	case kind != websocket.TextMessage:
		return codec.Message{}, fmt.Errorf("%w: frame type %d", ErrMalformedFrame, kind)
	}
	return decodeFrame(data)
}

func (w *WSConn) Close() error {
	w.wmu.Lock()
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.wmu.Unlock()
	return w.c.Close()
}

// Dial connects to a listening peer over TCP.
func Dial(ctx context.Context, addr string, maxFrame int) (*LineConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return NewLineConn(c, maxFrame), nil
}

// DialWS connects to a peer's /v1/play endpoint.
func DialWS(ctx context.Context, url string, maxFrame int) (*WSConn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return NewWSConn(c, maxFrame), nil
}

// Accept waits for a single peer on ln. Cancelling ctx closes ln.
func Accept(ctx context.Context, ln net.Listener, maxFrame int) (*LineConn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	c, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return NewLineConn(c, maxFrame), nil
}
