package protocol

import (
	"sync"

	"battleship-p2p/internal/codec"
)

// memConn is one end of an in-memory buffered pipe that still goes through the wire codec.
type memConn struct {
	in         <-chan []byte
	out        chan<- []byte
	closed     chan struct{}
	peerClosed <-chan struct{}
	once       sync.Once
}

func memPipe() (*memConn, *memConn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a := &memConn{in: ba, out: ab, closed: make(chan struct{})}
	b := &memConn{in: ab, out: ba, closed: make(chan struct{})}
	a.peerClosed, b.peerClosed = b.closed, a.closed
	return a, b
}

func (m *memConn) Send(msg codec.Message) error {
	data, err := encodeFrame(msg, DefaultMaxFrame)
	if err != nil {
		return err
	}
	select {
	case <-m.closed:
		return ErrDisconnected
	case <-m.peerClosed:
		return ErrDisconnected
	default:
	}
	select {
	case m.out <- data:
		return nil
	case <-m.closed:
		return ErrDisconnected
	}
}

func (m *memConn) Receive() (codec.Message, error) {
	select {
	case data := <-m.in:
		return decodeFrame(data)
	case <-m.closed:
		return codec.Message{}, ErrDisconnected
	case <-m.peerClosed:
		select {
		case data := <-m.in:
			return decodeFrame(data)
		default:
			return codec.Message{}, ErrDisconnected
		}
	}
}

func (m *memConn) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}
