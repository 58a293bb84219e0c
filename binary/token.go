package binary

// Token bytes of the binary node format. The dictionary token range below
// 236 is unused here; strings are always written raw as BINARY_8/BINARY_20.
const (
	tokenListEmpty byte = 0
	tokenList8     byte = 248
	tokenList16    byte = 249
	tokenBinary8   byte = 252
	tokenBinary20  byte = 253
)

// maxBinary20 is the largest length representable by the 20-bit form.
const maxBinary20 = 0x0FFFFF
