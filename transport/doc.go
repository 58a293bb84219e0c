// Package transport provides the connection layers under the node codec:
// a message-oriented socket abstraction, length-prefixed framing, and the
// Noise-encrypted transport established by the client handshake.
//
// The layering mirrors the wire protocol exactly. A Socket carries opaque
// binary messages (one WebSocket message = one frame; no coalescing, no
// splitting). A FramedConn prefixes every outgoing body with a 3-byte
// big-endian length and strips and validates the prefix on the way in.
// RunClientHandshake drives the 3-message Noise XX exchange over a
// FramedConn and returns a NoiseTransport whose Send encrypts every frame
// and whose receive loop decrypts them in strict arrival order.
//
// Errors at this layer are protocol-fatal for the connection: a malformed
// frame boundary or a decryption failure cannot be resynchronized, and the
// caller must tear the connection down and start over. Retry and reconnect
// policy belongs to the client, not here.
package transport
