package noise

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestPrologueLayout(t *testing.T) {
	prologue := Prologue()
	if len(prologue) != 36 {
		t.Fatalf("Expected 36-byte prologue, got %d", len(prologue))
	}
	if !bytes.Equal(prologue[:4], []byte{'W', 'A', MagicValue, DictVersion}) {
		t.Errorf("Connection header mismatch: %x", prologue[:4])
	}
	if !bytes.Equal(prologue[4:4+len(Pattern)], []byte(Pattern)) {
		t.Errorf("Pattern identifier mismatch: %q", prologue[4:4+len(Pattern)])
	}
	for i, b := range prologue[4+len(Pattern):] {
		if b != 0 {
			t.Errorf("Expected NUL padding at offset %d, got %d", i, b)
		}
	}
}

func TestNewHandshakeValidation(t *testing.T) {
	shortKey := make([]byte, 16)
	if _, err := NewHandshake(shortKey, Initiator); err == nil {
		t.Error("Expected error for 16-byte static key")
	}

	// nil key generates a fresh static keypair
	if _, err := NewHandshake(nil, Initiator); err != nil {
		t.Errorf("Unexpected error with generated key: %v", err)
	}
}

// Full 3-message XX exchange between two in-process parties, then a
// message encrypted by each side's send state decrypted by the other's
// matching receive state.
func TestHandshakeFlowAndTransport(t *testing.T) {
	initiatorKey := make([]byte, 32)
	responderKey := make([]byte, 32)
	if _, err := rand.Read(initiatorKey); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(responderKey); err != nil {
		t.Fatal(err)
	}

	initiator, err := NewHandshake(initiatorKey, Initiator)
	if err != nil {
		t.Fatalf("Failed to create initiator: %v", err)
	}
	responder, err := NewHandshake(responderKey, Responder)
	if err != nil {
		t.Fatalf("Failed to create responder: %v", err)
	}

	// -> e
	msg1, err := initiator.WriteMessage()
	if err != nil {
		t.Fatalf("Message 1 write failed: %v", err)
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatalf("Message 1 read failed: %v", err)
	}

	// <- e, ee, s, es
	msg2, err := responder.WriteMessage()
	if err != nil {
		t.Fatalf("Message 2 write failed: %v", err)
	}
	if _, err := initiator.ReadMessage(msg2); err != nil {
		t.Fatalf("Message 2 read failed: %v", err)
	}

	// -> s, se
	msg3, err := initiator.WriteMessage()
	if err != nil {
		t.Fatalf("Message 3 write failed: %v", err)
	}
	if !initiator.IsComplete() {
		t.Fatal("Initiator should be complete after message 3")
	}
	if _, err := responder.ReadMessage(msg3); err != nil {
		t.Fatalf("Message 3 read failed: %v", err)
	}
	if !responder.IsComplete() {
		t.Fatal("Responder should be complete after message 3")
	}

	initSend, initRecv, err := initiator.CipherStates()
	if err != nil {
		t.Fatal(err)
	}
	respSend, respRecv, err := responder.CipherStates()
	if err != nil {
		t.Fatal(err)
	}

	// initiator -> responder
	plaintext := []byte("hello over the encrypted channel")
	ciphertext, err := initSend.Encrypt(nil, nil, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	decrypted, err := respRecv.Decrypt(nil, nil, ciphertext)
	if err != nil {
		t.Fatalf("Responder failed to decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypted mismatch: %q", decrypted)
	}

	// responder -> initiator
	reply := []byte("reply on the other direction")
	ciphertext, err = respSend.Encrypt(nil, nil, reply)
	if err != nil {
		t.Fatal(err)
	}
	decrypted, err = initRecv.Decrypt(nil, nil, ciphertext)
	if err != nil {
		t.Fatalf("Initiator failed to decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, reply) {
		t.Errorf("Decrypted mismatch: %q", decrypted)
	}

	// Peer static keys were exchanged and are visible to both sides.
	if _, err := initiator.PeerStatic(); err != nil {
		t.Errorf("Initiator missing peer static key: %v", err)
	}
	if _, err := responder.PeerStatic(); err != nil {
		t.Errorf("Responder missing peer static key: %v", err)
	}
}

func TestHandshakeTamperedMessageFails(t *testing.T) {
	initiator, err := NewHandshake(nil, Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := NewHandshake(nil, Responder)
	if err != nil {
		t.Fatal(err)
	}

	msg1, err := initiator.WriteMessage()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatal(err)
	}
	msg2, err := responder.WriteMessage()
	if err != nil {
		t.Fatal(err)
	}

	// Message 2 carries the first AEAD-protected material; corrupting it
	// must surface as a handshake failure.
	msg2[len(msg2)-1] ^= 0xFF
	if _, err := initiator.ReadMessage(msg2); !errors.Is(err, ErrHandshakeFailed) {
		t.Errorf("Expected ErrHandshakeFailed, got %v", err)
	}
}

func TestHandshakeUseAfterComplete(t *testing.T) {
	initiator, err := NewHandshake(nil, Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := NewHandshake(nil, Responder)
	if err != nil {
		t.Fatal(err)
	}

	msg1, _ := initiator.WriteMessage()
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatal(err)
	}
	msg2, _ := responder.WriteMessage()
	if _, err := initiator.ReadMessage(msg2); err != nil {
		t.Fatal(err)
	}
	if _, err := initiator.WriteMessage(); err != nil {
		t.Fatal(err)
	}

	if _, err := initiator.WriteMessage(); !errors.Is(err, ErrHandshakeComplete) {
		t.Errorf("Expected ErrHandshakeComplete on write, got %v", err)
	}
	if _, err := initiator.ReadMessage([]byte{1}); !errors.Is(err, ErrHandshakeComplete) {
		t.Errorf("Expected ErrHandshakeComplete on read, got %v", err)
	}
}

func TestCipherStatesBeforeComplete(t *testing.T) {
	handshake, err := NewHandshake(nil, Initiator)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := handshake.CipherStates(); !errors.Is(err, ErrHandshakeNotComplete) {
		t.Errorf("Expected ErrHandshakeNotComplete, got %v", err)
	}
	if _, err := handshake.PeerStatic(); !errors.Is(err, ErrHandshakeNotComplete) {
		t.Errorf("Expected ErrHandshakeNotComplete, got %v", err)
	}
}
