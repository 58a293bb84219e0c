// Package pairing implements the cryptography of the one-time device
// linking flow: verifying the server-issued device identity payload,
// generating the device's long-term key material, and producing the signed
// identity blob that gets persisted.
//
// Three independent secrets come out of a pairing event: a Curve25519 key
// pair used as the long-term handshake identity, an Ed25519 key pair used
// to authenticate the device to the server, and a random 32-byte
// advertising secret. All of them must be persisted; losing any means the
// device has to re-pair.
//
// Everything here is pure computation — no I/O, no suspension — and safe
// to call from any goroutine.
package pairing
