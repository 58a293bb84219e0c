package transport

import (
	"errors"
	"sync"
)

// ErrConnectionClosed indicates the peer closed the socket or the
// underlying transport failed. It propagates up unchanged so the client
// can make reconnect decisions.
var ErrConnectionClosed = errors.New("connection closed")

// Socket is a bidirectional message-oriented transport: every call moves
// exactly one opaque binary message. The framing layer requires this shape.
// Implementations are *WebSocket and the in-memory pair from
// MemorySocketPair.
type Socket interface {
	// ReadMessage blocks until one message arrives and returns it.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one message.
	WriteMessage(data []byte) error

	// Close shuts the socket down; blocked readers fail with
	// ErrConnectionClosed.
	Close() error
}

// memorySocket is one end of an in-process socket pair. It exists so the
// framing and handshake layers can be exercised without a network.
type memorySocket struct {
	incoming   <-chan []byte
	outgoing   chan<- []byte
	closed     chan struct{}
	peerClosed <-chan struct{}
	closeOnce  sync.Once
}

// MemorySocketPair returns two connected in-memory sockets. Messages
// written on one end arrive on the other in order.
func MemorySocketPair() (Socket, Socket) {
	aToB := make(chan []byte, 16)
	bToA := make(chan []byte, 16)
	aClosed := make(chan struct{})
	bClosed := make(chan struct{})

	a := &memorySocket{incoming: bToA, outgoing: aToB, closed: aClosed, peerClosed: bClosed}
	b := &memorySocket{incoming: aToB, outgoing: bToA, closed: bClosed, peerClosed: aClosed}
	return a, b
}

func (s *memorySocket) ReadMessage() ([]byte, error) {
	select {
	case message := <-s.incoming:
		return message, nil
	case <-s.closed:
		return nil, ErrConnectionClosed
	case <-s.peerClosed:
		// Peer closed; drain anything already in flight first.
		select {
		case message := <-s.incoming:
			return message, nil
		default:
			return nil, ErrConnectionClosed
		}
	}
}

func (s *memorySocket) WriteMessage(data []byte) error {
	message := make([]byte, len(data))
	copy(message, data)
	select {
	case <-s.closed:
		return ErrConnectionClosed
	case <-s.peerClosed:
		return ErrConnectionClosed
	case s.outgoing <- message:
		return nil
	}
}

func (s *memorySocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
