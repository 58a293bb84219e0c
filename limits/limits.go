package limits

import (
	"errors"
	"fmt"
)

const (
	// FrameHeaderSize is the length prefix on every frame (3-byte big endian).
	FrameHeaderSize = 3

	// MaxFrameSize is the largest frame body a 3-byte length can describe
	// (2^24 - 1 bytes).
	MaxFrameSize = 1<<24 - 1

	// MaxNoisePayload is the Noise protocol ceiling for one transport
	// message (65535 bytes including the AEAD tag).
	MaxNoisePayload = 65535

	// HMACTagSize is the trailing HMAC-SHA256 tag on server-issued
	// device identity payloads.
	HMACTagSize = 32

	// SignaturePublicKeySize is the Ed25519 public key embedded at the
	// front of a signed identity blob.
	SignaturePublicKeySize = 32

	// SignatureSize is the Ed25519 signature following the public key.
	SignatureSize = 64

	// SignedBlobHeaderSize is the fixed header of a signed identity blob:
	// public key followed by signature.
	SignedBlobHeaderSize = SignaturePublicKeySize + SignatureSize
)

var (
	// ErrFrameTooLarge indicates a frame body exceeding MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrPayloadTooLarge indicates a plaintext exceeding MaxNoisePayload.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ValidateFrameSize checks a frame body length against MaxFrameSize.
func ValidateFrameSize(length int) error {
	if length > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrFrameTooLarge, length, MaxFrameSize)
	}
	return nil
}

// ValidateNoisePayload checks a plaintext length against MaxNoisePayload.
func ValidateNoisePayload(length int) error {
	if length > MaxNoisePayload {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrPayloadTooLarge, length, MaxNoisePayload)
	}
	return nil
}
