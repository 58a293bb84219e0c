package transport

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/opd-ai/wamd/limits"
)

func handshakePair(t *testing.T) (*NoiseTransport, *NoiseTransport) {
	t.Helper()

	clientSocket, serverSocket := MemorySocketPair()
	serverDone := make(chan struct{})
	var server *NoiseTransport
	var serverErr error
	go func() {
		defer close(serverDone)
		server, serverErr = RunServerHandshake(NewFramedConn(serverSocket), nil)
	}()

	staticKey := make([]byte, 32)
	if _, err := rand.Read(staticKey); err != nil {
		t.Fatal(err)
	}
	client, err := RunClientHandshake(NewFramedConn(clientSocket), staticKey)
	if err != nil {
		t.Fatalf("Client handshake failed: %v", err)
	}
	<-serverDone
	if serverErr != nil {
		t.Fatalf("Server handshake failed: %v", serverErr)
	}
	return client, server
}

func TestClientHandshakeAndEncryptedExchange(t *testing.T) {
	client, server := handshakePair(t)

	// client -> server
	request := []byte("encrypted request payload")
	if err := client.SendEncrypted(request); err != nil {
		t.Fatalf("SendEncrypted failed: %v", err)
	}
	got, err := server.ReceiveDecrypted()
	if err != nil {
		t.Fatalf("ReceiveDecrypted failed: %v", err)
	}
	if !bytes.Equal(got, request) {
		t.Errorf("Payload mismatch: %q", got)
	}

	// server -> client
	response := []byte("encrypted response payload")
	if err := server.SendEncrypted(response); err != nil {
		t.Fatal(err)
	}
	got, err = client.ReceiveDecrypted()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, response) {
		t.Errorf("Payload mismatch: %q", got)
	}
}

func TestEncryptedOrderPreserved(t *testing.T) {
	client, server := handshakePair(t)

	// Nonce counters are sequential per direction: many frames one way
	// must decrypt in exact arrival order.
	for i := 0; i < 50; i++ {
		if err := client.SendEncrypted([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 50; i++ {
		plaintext, err := server.ReceiveDecrypted()
		if err != nil {
			t.Fatalf("Frame %d failed to decrypt: %v", i, err)
		}
		if len(plaintext) != 1 || plaintext[0] != byte(i) {
			t.Fatalf("Frame %d out of order: %x", i, plaintext)
		}
	}
}

func TestSendEncryptedPayloadTooLarge(t *testing.T) {
	client, _ := handshakePair(t)
	err := client.SendEncrypted(make([]byte, limits.MaxNoisePayload+1))
	if !errors.Is(err, limits.ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestReceiveDecryptedTamperedFrame(t *testing.T) {
	client, server := handshakePair(t)

	if err := client.SendEncrypted([]byte("will be tampered")); err != nil {
		t.Fatal(err)
	}
	// Flip a ciphertext bit in flight by replaying it through a fresh
	// framed write: read the raw frame below the server's Noise layer.
	raw, err := server.framed.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	raw[0] ^= 0x01
	server.recv.mu.Lock()
	_, err = server.recv.cipher.Decrypt(nil, nil, raw)
	server.recv.mu.Unlock()
	if err == nil {
		t.Fatal("Tampered ciphertext decrypted without error")
	}
}

func TestReceiveDecryptedBogusFrame(t *testing.T) {
	client, server := handshakePair(t)

	// A frame that never saw the send cipher fails authentication.
	if err := client.framed.WriteFrame(bytes.Repeat([]byte{0x5A}, 32)); err != nil {
		t.Fatal(err)
	}
	if _, err := server.ReceiveDecrypted(); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Expected ErrDecryptionFailed, got %v", err)
	}
}

func TestHandshakeAgainstClosedSocket(t *testing.T) {
	clientSocket, serverSocket := MemorySocketPair()
	if err := serverSocket.Close(); err != nil {
		t.Fatal(err)
	}
	// The dead peer never answers message 1; the read of message 2 fails
	// with a connection error and the session is aborted.
	_, err := RunClientHandshake(NewFramedConn(clientSocket), nil)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}
