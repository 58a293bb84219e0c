package transport

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/flynn/noise"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/wamd/limits"
	wanoise "github.com/opd-ai/wamd/noise"
)

// ErrDecryptionFailed indicates an authentication failure on an incoming
// frame. The nonce counters are strictly sequential per direction, so
// there is no resynchronization: the connection must be torn down and a
// fresh handshake performed.
var ErrDecryptionFailed = errors.New("decryption failed")

// channelState is one direction of the encrypted channel. The cipher
// advances its nonce counter on every use, so "encrypt, advance, write"
// must be atomic per call.
type channelState struct {
	mu     sync.Mutex
	cipher *noise.CipherState
}

// NoiseTransport is the encrypted channel over a framed socket. The send
// direction is shared across concurrent senders; the receive direction is
// owned by the single background receive loop.
type NoiseTransport struct {
	framed *FramedConn
	send   channelState
	recv   channelState
}

// RunClientHandshake performs the 3-message Noise XX exchange as initiator
// over the framed connection and returns the encrypted transport.
// staticPrivKey is the device's long-term Curve25519 private key; nil
// generates a fresh static key for first contact.
//
// The first frame on the wire is prologue ∥ message1 — the only frame in
// the exchange carrying the prologue inline. Any failure aborts the
// session with no retry at this layer.
func RunClientHandshake(framed *FramedConn, staticPrivKey []byte) (*NoiseTransport, error) {
	log := logrus.WithFields(logrus.Fields{
		"function": "RunClientHandshake",
		"package":  "transport",
	})

	handshake, err := wanoise.NewHandshake(staticPrivKey, wanoise.Initiator)
	if err != nil {
		return nil, err
	}

	// -> e, sent with the prologue prefixed
	message1, err := handshake.WriteMessage()
	if err != nil {
		return nil, err
	}
	prologue := wanoise.Prologue()
	firstFrame := make([]byte, 0, len(prologue)+len(message1))
	firstFrame = append(firstFrame, prologue...)
	firstFrame = append(firstFrame, message1...)
	if err := framed.WriteFrame(firstFrame); err != nil {
		return nil, err
	}
	log.Debug("Handshake message 1 sent")

	// <- e, ee, s, es
	message2, err := framed.ReadFrame()
	if err != nil {
		return nil, err
	}
	if _, err := handshake.ReadMessage(message2); err != nil {
		log.WithField("error", err.Error()).Error("Handshake message 2 rejected")
		return nil, err
	}

	// -> s, se
	message3, err := handshake.WriteMessage()
	if err != nil {
		return nil, err
	}
	if err := framed.WriteFrame(message3); err != nil {
		return nil, err
	}

	if !handshake.IsComplete() {
		return nil, fmt.Errorf("%w: exchange incomplete after message 3", wanoise.ErrHandshakeFailed)
	}
	send, recv, err := handshake.CipherStates()
	if err != nil {
		return nil, err
	}
	log.Debug("Handshake finished, channel established")

	transport := &NoiseTransport{framed: framed}
	transport.send.cipher = send
	transport.recv.cipher = recv
	return transport, nil
}

// RunServerHandshake performs the responder side of the exchange: strip
// and check the inline prologue on the first frame, answer, and finish
// with an encrypted transport. Used for in-process peers.
func RunServerHandshake(framed *FramedConn, staticPrivKey []byte) (*NoiseTransport, error) {
	handshake, err := wanoise.NewHandshake(staticPrivKey, wanoise.Responder)
	if err != nil {
		return nil, err
	}

	firstFrame, err := framed.ReadFrame()
	if err != nil {
		return nil, err
	}
	prologue := wanoise.Prologue()
	if len(firstFrame) < len(prologue) || !bytes.Equal(firstFrame[:len(prologue)], prologue) {
		return nil, fmt.Errorf("%w: first frame missing prologue", wanoise.ErrHandshakeFailed)
	}
	if _, err := handshake.ReadMessage(firstFrame[len(prologue):]); err != nil {
		return nil, err
	}

	message2, err := handshake.WriteMessage()
	if err != nil {
		return nil, err
	}
	if err := framed.WriteFrame(message2); err != nil {
		return nil, err
	}

	message3, err := framed.ReadFrame()
	if err != nil {
		return nil, err
	}
	if _, err := handshake.ReadMessage(message3); err != nil {
		return nil, err
	}

	send, recv, err := handshake.CipherStates()
	if err != nil {
		return nil, err
	}
	transport := &NoiseTransport{framed: framed}
	transport.send.cipher = send
	transport.recv.cipher = recv
	return transport, nil
}

// SendEncrypted encrypts one plaintext and writes the ciphertext as one
// frame. Safe for concurrent callers: the send counter advance and the
// frame write are serialized.
func (t *NoiseTransport) SendEncrypted(plaintext []byte) error {
	if err := limits.ValidateNoisePayload(len(plaintext)); err != nil {
		return err
	}

	t.send.mu.Lock()
	defer t.send.mu.Unlock()
	ciphertext, err := t.send.cipher.Encrypt(nil, nil, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt frame: %w", err)
	}
	return t.framed.WriteFrame(ciphertext)
}

// ReceiveDecrypted blocks until one frame arrives and decrypts it. Frames
// must be processed in the exact order sent; only the single background
// receive loop may call this.
func (t *NoiseTransport) ReceiveDecrypted() ([]byte, error) {
	ciphertext, err := t.framed.ReadFrame()
	if err != nil {
		return nil, err
	}

	t.recv.mu.Lock()
	defer t.recv.mu.Unlock()
	plaintext, err := t.recv.cipher.Decrypt(nil, nil, ciphertext)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ReceiveDecrypted",
			"package":  "transport",
			"error":    err.Error(),
		}).Error("Frame failed authentication, channel is dead")
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// Send implements Transport by encrypting and framing one payload.
func (t *NoiseTransport) Send(data []byte) error {
	return t.SendEncrypted(data)
}

// Close shuts the underlying connection down.
func (t *NoiseTransport) Close() error {
	return t.framed.Close()
}
