package transport

// Transport is the capability the client holds for an established
// connection: send one unit, or close. The implementations are a fixed
// set — *FramedConn sends plaintext frames (used only during setup) and
// *NoiseTransport sends encrypted frames — selected at construction.
type Transport interface {
	// Send transmits one unit over the connection.
	Send(data []byte) error

	// Close shuts the connection down.
	Close() error
}
