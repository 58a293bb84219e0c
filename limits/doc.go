// Package limits provides centralized size limits for the wire protocol.
// This ensures consistent validation across the framing, encrypted
// transport, and pairing components of the system.
package limits
