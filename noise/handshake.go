package noise

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/flynn/noise"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

var (
	// ErrHandshakeFailed indicates an authentication or DH failure during
	// the exchange. The session yields no usable output and must be
	// abandoned; retry belongs to the caller, not this layer.
	ErrHandshakeFailed = errors.New("handshake failed")
	// ErrHandshakeNotComplete indicates cipher states were requested
	// before the exchange finished.
	ErrHandshakeNotComplete = errors.New("handshake not complete")
	// ErrHandshakeComplete indicates a message was written or read after
	// the exchange already finished.
	ErrHandshakeComplete = errors.New("handshake already complete")
)

// Role defines whether we initiate or respond to the handshake. A client
// connecting to the server is always the Initiator; Responder exists for
// in-process peers in tests.
type Role uint8

const (
	// Initiator starts the handshake.
	Initiator Role = iota
	// Responder answers the handshake.
	Responder
)

// Handshake drives the fixed 3-message XX exchange. It is transient: once
// finished (or failed) the only useful output is the pair of directional
// cipher states.
type Handshake struct {
	role     Role
	state    *noise.HandshakeState
	send     *noise.CipherState
	recv     *noise.CipherState
	complete bool
}

// NewHandshake creates a handshake for the given role. staticPrivKey is the
// local long-term Curve25519 private key (32 bytes); pass nil to generate a
// fresh static key, which the XX pattern permits on first contact.
func NewHandshake(staticPrivKey []byte, role Role) (*Handshake, error) {
	cipherSuite := noise.NewCipherSuite(noise.DH25519, noise.CipherAESGCM, noise.HashSHA256)

	var staticKey noise.DHKey
	var err error
	if staticPrivKey == nil {
		staticKey, err = cipherSuite.GenerateKeypair(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate static keypair: %w", err)
		}
	} else {
		staticKey, err = keypairFromPrivate(staticPrivKey)
		if err != nil {
			return nil, err
		}
	}

	config := noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeXX,
		Initiator:     role == Initiator,
		Prologue:      Prologue(),
		StaticKeypair: staticKey,
	}

	state, err := noise.NewHandshakeState(config)
	if err != nil {
		return nil, fmt.Errorf("create handshake state: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewHandshake",
		"package":  "noise",
		"role":     role,
		"pattern":  Pattern,
	}).Debug("Handshake state created")

	return &Handshake{role: role, state: state}, nil
}

// keypairFromPrivate derives the Curve25519 public key for a 32-byte
// private scalar and returns the pair in the engine's key format.
func keypairFromPrivate(privateKey []byte) (noise.DHKey, error) {
	if len(privateKey) != 32 {
		return noise.DHKey{}, fmt.Errorf("static private key must be 32 bytes, got %d", len(privateKey))
	}
	publicKey, err := curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return noise.DHKey{}, fmt.Errorf("derive static public key: %w", err)
	}
	key := noise.DHKey{
		Private: make([]byte, 32),
		Public:  make([]byte, 32),
	}
	copy(key.Private, privateKey)
	copy(key.Public, publicKey)
	return key, nil
}

// WriteMessage produces the next outgoing handshake message with an empty
// payload. When the message completes the exchange, the directional cipher
// states become available through CipherStates.
func (h *Handshake) WriteMessage() ([]byte, error) {
	if h.complete {
		return nil, ErrHandshakeComplete
	}

	message, cs0, cs1, err := h.state.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: write: %v", ErrHandshakeFailed, err)
	}
	if cs0 != nil && cs1 != nil {
		h.finish(cs0, cs1)
	}
	return message, nil
}

// ReadMessage consumes an incoming handshake message. A MAC or DH failure
// here is fatal for the session.
func (h *Handshake) ReadMessage(message []byte) ([]byte, error) {
	if h.complete {
		return nil, ErrHandshakeComplete
	}

	payload, cs0, cs1, err := h.state.ReadMessage(nil, message)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrHandshakeFailed, err)
	}
	if cs0 != nil && cs1 != nil {
		h.finish(cs0, cs1)
	}
	return payload, nil
}

// finish records the split cipher states. The engine always returns them in
// initiator-to-responder order, so the responder's send direction is the
// second state.
func (h *Handshake) finish(cs0, cs1 *noise.CipherState) {
	if h.role == Initiator {
		h.send, h.recv = cs0, cs1
	} else {
		h.send, h.recv = cs1, cs0
	}
	h.complete = true

	logrus.WithFields(logrus.Fields{
		"function": "finish",
		"package":  "noise",
		"role":     h.role,
	}).Debug("Handshake finished, cipher states split")
}

// IsComplete reports whether the exchange reached its terminal finished
// state.
func (h *Handshake) IsComplete() bool {
	return h.complete
}

// CipherStates returns the send and receive cipher states after a finished
// handshake. Each independently advances a sequential nonce counter on
// every use.
func (h *Handshake) CipherStates() (send, recv *noise.CipherState, err error) {
	if !h.complete {
		return nil, nil, ErrHandshakeNotComplete
	}
	return h.send, h.recv, nil
}

// PeerStatic returns the remote static public key learned during the
// exchange, for callers that pin server identity.
func (h *Handshake) PeerStatic() ([]byte, error) {
	if !h.complete {
		return nil, ErrHandshakeNotComplete
	}
	remote := h.state.PeerStatic()
	if len(remote) == 0 {
		return nil, fmt.Errorf("remote static key not available")
	}
	key := make([]byte, len(remote))
	copy(key, remote)
	return key, nil
}
