// Package noise runs the Noise XX handshake that upgrades a framed socket
// into an authenticated encrypted channel.
//
// The protocol fixes the pattern to XX over Curve25519 with AES-GCM and
// SHA-256 ("Noise_XX_25519_AESGCM_SHA256"). A prologue made of the 4-byte
// connection header and the null-padded pattern identifier is hashed into
// the handshake transcript; the same bytes are physically prefixed onto the
// first wire message. Both constants must match the server exactly or the
// handshake MACs fail.
//
// The symmetric state machine itself (DH, AEAD, transcript hashing) is the
// github.com/flynn/noise engine; this package contributes the protocol
// constants, the message sequencing, and the role-aware split of the two
// directional cipher states once the exchange finishes.
package noise
