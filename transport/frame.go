package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/wamd/limits"
)

var (
	// ErrFrameTooShort indicates a socket message under the 3-byte header.
	ErrFrameTooShort = errors.New("frame too short")
	// ErrFrameLengthMismatch indicates the declared length does not equal
	// the remaining message bytes.
	ErrFrameLengthMismatch = errors.New("frame length mismatch")
)

// PutFrameLength writes a 3-byte big-endian length prefix into buf, which
// must hold at least limits.FrameHeaderSize bytes.
func PutFrameLength(buf []byte, length int) {
	buf[0] = byte(length >> 16)
	buf[1] = byte(length >> 8)
	buf[2] = byte(length)
}

// FrameLength reads a 3-byte big-endian length from buf, which must hold
// at least limits.FrameHeaderSize bytes.
func FrameLength(buf []byte) int {
	return int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
}

// FramedConn wraps a Socket so that every message carries a 3-byte
// big-endian length prefix. One socket message is exactly one frame.
type FramedConn struct {
	socket  Socket
	writeMu sync.Mutex
}

// NewFramedConn wraps the given socket.
func NewFramedConn(socket Socket) *FramedConn {
	return &FramedConn{socket: socket}
}

// WriteFrame prefixes body with its length and transmits it as a single
// socket message.
func (f *FramedConn) WriteFrame(body []byte) error {
	if err := limits.ValidateFrameSize(len(body)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "WriteFrame",
			"package":  "transport",
			"size":     len(body),
		}).Error("Refusing oversize frame")
		return err
	}

	message := make([]byte, limits.FrameHeaderSize+len(body))
	PutFrameLength(message, len(body))
	copy(message[limits.FrameHeaderSize:], body)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.socket.WriteMessage(message)
}

// ReadFrame blocks until one socket message arrives, validates the frame
// boundary, and returns the body with the prefix stripped. Boundary
// violations are fatal for the connection.
func (f *FramedConn) ReadFrame() ([]byte, error) {
	message, err := f.socket.ReadMessage()
	if err != nil {
		return nil, err
	}
	if len(message) < limits.FrameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(message))
	}

	declared := FrameLength(message)
	if err := limits.ValidateFrameSize(declared); err != nil {
		return nil, err
	}
	if declared != len(message)-limits.FrameHeaderSize {
		return nil, fmt.Errorf("%w: declared %d, got %d",
			ErrFrameLengthMismatch, declared, len(message)-limits.FrameHeaderSize)
	}
	return message[limits.FrameHeaderSize:], nil
}

// Send implements Transport by writing one plaintext frame.
func (f *FramedConn) Send(data []byte) error {
	return f.WriteFrame(data)
}

// Close shuts the underlying socket down.
func (f *FramedConn) Close() error {
	return f.socket.Close()
}
