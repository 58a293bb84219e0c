package pairing

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/opd-ai/wamd/limits"
)

var (
	// ErrInvalidIdentityHMAC indicates a device identity payload whose
	// trailing HMAC-SHA256 tag does not verify. Either tampering or a
	// protocol mismatch; never retried silently.
	ErrInvalidIdentityHMAC = errors.New("invalid device identity HMAC")
	// ErrInvalidSignature indicates a signed identity blob that is too
	// short, carries a malformed public key, or fails verification.
	ErrInvalidSignature = errors.New("invalid device signature")
)

// VerifiedIdentity is a server-issued identity payload whose trailing tag
// was stripped and confirmed valid. It exists only to hand the validated
// bytes to the signing step.
type VerifiedIdentity struct {
	Payload []byte
}

// VerifyDeviceIdentity checks the trailing 32-byte HMAC-SHA256 tag on a
// server-issued identity payload. The split point is fixed: the last
// limits.HMACTagSize bytes are always the tag, regardless of payload
// content.
func VerifyDeviceIdentity(payloadWithTag, hmacKey []byte) (*VerifiedIdentity, error) {
	if len(payloadWithTag) < limits.HMACTagSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the tag", ErrInvalidIdentityHMAC, len(payloadWithTag))
	}
	split := len(payloadWithTag) - limits.HMACTagSize
	payload := payloadWithTag[:split]
	tag := payloadWithTag[split:]

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, ErrInvalidIdentityHMAC
	}

	verified := make([]byte, len(payload))
	copy(verified, payload)
	return &VerifiedIdentity{Payload: verified}, nil
}

// SignDeviceIdentity builds the signed identity blob persisted after
// pairing: signing public key (32) ∥ signature (64) ∥ payload. The server
// verifies the same layout later.
func SignDeviceIdentity(payload []byte, identityPrivate [32]byte) []byte {
	signingKey := ed25519.NewKeyFromSeed(identityPrivate[:])
	publicKey := signingKey.Public().(ed25519.PublicKey)
	signature := ed25519.Sign(signingKey, payload)

	blob := make([]byte, 0, limits.SignedBlobHeaderSize+len(payload))
	blob = append(blob, publicKey...)
	blob = append(blob, signature...)
	blob = append(blob, payload...)
	return blob
}

// VerifySignedIdentity validates a stored signed identity blob and returns
// the inner payload. The signature over blob[96:] must verify under the
// public key embedded at blob[0:32].
func VerifySignedIdentity(blob []byte) ([]byte, error) {
	if len(blob) < limits.SignedBlobHeaderSize {
		return nil, fmt.Errorf("%w: blob of %d bytes is shorter than the %d-byte header",
			ErrInvalidSignature, len(blob), limits.SignedBlobHeaderSize)
	}
	publicKey := ed25519.PublicKey(blob[:limits.SignaturePublicKeySize])
	signature := blob[limits.SignaturePublicKeySize:limits.SignedBlobHeaderSize]
	payload := blob[limits.SignedBlobHeaderSize:]

	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, ErrInvalidSignature
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
