package pairing

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// PairingKeys is the key material generated once per pairing event. The
// three secrets are independent; no derivation relationship exists between
// them.
type PairingKeys struct {
	// NoisePublic is the Curve25519 public key used as the long-term
	// handshake identity.
	NoisePublic [32]byte
	// NoisePrivate is the matching private scalar. Store securely.
	NoisePrivate [32]byte
	// IdentityPublic is the Ed25519 public key authenticating this device.
	IdentityPublic [32]byte
	// IdentityPrivate is the Ed25519 seed. Store securely.
	IdentityPrivate [32]byte
	// AdvSecret is the opaque 32-byte advertising secret.
	AdvSecret [32]byte
}

// GeneratePairingKeys generates fresh pairing key material from the
// system's cryptographically secure random source.
func GeneratePairingKeys() (*PairingKeys, error) {
	keys := &PairingKeys{}

	if _, err := rand.Read(keys.NoisePrivate[:]); err != nil {
		return nil, fmt.Errorf("generate noise private key: %w", err)
	}
	noisePublic, err := curve25519.X25519(keys.NoisePrivate[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive noise public key: %w", err)
	}
	copy(keys.NoisePublic[:], noisePublic)

	identityPublic, identityPrivate, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	copy(keys.IdentityPublic[:], identityPublic)
	copy(keys.IdentityPrivate[:], identityPrivate.Seed())

	if _, err := rand.Read(keys.AdvSecret[:]); err != nil {
		return nil, fmt.Errorf("generate adv secret: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "GeneratePairingKeys",
		"package":  "pairing",
	}).Debug("Pairing keys generated")

	return keys, nil
}
