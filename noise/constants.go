package noise

// Pattern is the Noise handshake pattern used by the multidevice protocol.
const Pattern = "Noise_XX_25519_AESGCM_SHA256"

const (
	// MagicValue is the magic byte in the connection header.
	MagicValue byte = 6
	// DictVersion is the token dictionary version (must match the server).
	DictVersion byte = 3
	// startPatternSize is the pattern identifier padded with NULs.
	startPatternSize = 32
)

// ConnHeader returns the 4-byte connection header: "WA" + magic + dict
// version.
func ConnHeader() [4]byte {
	return [4]byte{'W', 'A', MagicValue, DictVersion}
}

// StartPattern returns the pattern identifier null-padded to 32 bytes, as
// it appears in the prologue.
func StartPattern() []byte {
	padded := make([]byte, startPatternSize)
	copy(padded, Pattern)
	return padded
}

// Prologue returns the bytes hashed into the handshake transcript: the
// connection header followed by the padded pattern identifier. The same
// bytes are sent inline ahead of the first handshake message.
func Prologue() []byte {
	header := ConnHeader()
	prologue := make([]byte, 0, len(header)+startPatternSize)
	prologue = append(prologue, header[:]...)
	prologue = append(prologue, StartPattern()...)
	return prologue
}
