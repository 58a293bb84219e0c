package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opd-ai/wamd/limits"
)

func TestFrameLengthRoundTrip(t *testing.T) {
	buf := make([]byte, limits.FrameHeaderSize)
	for _, length := range []int{0, 1, 255, 256, 65535, 65536, limits.MaxFrameSize} {
		PutFrameLength(buf, length)
		if got := FrameLength(buf); got != length {
			t.Errorf("Length %d round-tripped to %d", length, got)
		}
	}
}

func TestFramedConnRoundTrip(t *testing.T) {
	a, b := MemorySocketPair()
	sender := NewFramedConn(a)
	receiver := NewFramedConn(b)

	bodies := [][]byte{
		{},
		{0x42},
		bytes.Repeat([]byte{0xAB}, 300),
		bytes.Repeat([]byte{0xCD}, 70000),
	}
	for _, body := range bodies {
		if err := sender.WriteFrame(body); err != nil {
			t.Fatalf("WriteFrame(%d bytes) failed: %v", len(body), err)
		}
		got, err := receiver.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("Body mismatch: sent %d bytes, got %d", len(body), len(got))
		}
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	a, _ := MemorySocketPair()
	framed := NewFramedConn(a)
	err := framed.WriteFrame(make([]byte, limits.MaxFrameSize+1))
	if !errors.Is(err, limits.ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrameTooShort(t *testing.T) {
	a, b := MemorySocketPair()
	framed := NewFramedConn(b)

	for _, message := range [][]byte{{}, {1}, {0, 1}} {
		if err := a.WriteMessage(message); err != nil {
			t.Fatal(err)
		}
		if _, err := framed.ReadFrame(); !errors.Is(err, ErrFrameTooShort) {
			t.Errorf("Message of %d bytes: expected ErrFrameTooShort, got %v", len(message), err)
		}
	}
}

func TestReadFrameLengthMismatch(t *testing.T) {
	a, b := MemorySocketPair()
	framed := NewFramedConn(b)

	// Declares 5 body bytes but carries 3.
	if err := a.WriteMessage([]byte{0, 0, 5, 1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := framed.ReadFrame(); !errors.Is(err, ErrFrameLengthMismatch) {
		t.Errorf("Expected ErrFrameLengthMismatch, got %v", err)
	}

	// Declares 1 body byte but carries 2.
	if err := a.WriteMessage([]byte{0, 0, 1, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if _, err := framed.ReadFrame(); !errors.Is(err, ErrFrameLengthMismatch) {
		t.Errorf("Expected ErrFrameLengthMismatch, got %v", err)
	}
}

func TestReadFrameConnectionClosed(t *testing.T) {
	a, b := MemorySocketPair()
	framed := NewFramedConn(b)

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := framed.ReadFrame(); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestMemorySocketDrainsBeforeClose(t *testing.T) {
	a, b := MemorySocketPair()

	if err := a.WriteMessage([]byte("queued")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	// The queued message is still readable after the peer closed.
	message, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("Expected queued message, got error: %v", err)
	}
	if string(message) != "queued" {
		t.Errorf("Message mismatch: %q", message)
	}
	if _, err := b.ReadMessage(); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed after drain, got %v", err)
	}
}
