// Decoding of the "extended message" sub-encoding embedded in chat packet
// string fields: radix-85 packed integers plus a tagged argument list
// resolved against a localized string table.
package extmsg

import "fmt"

// groupSize is the number of input bytes per packed 32-bit value.
const groupSize = 5

// DecodeBase85 unpacks one radix-85 group into a 32-bit value:
// value = sum of (byte-33) * 85^(4-i). This is the protocol's own fixed
// radix-85 scheme, not the RFC 1924 alphabet. Values wrap at 32 bits.
func DecodeBase85(group []byte) (uint32, error) {
	if len(group) != groupSize {
		return 0, fmt.Errorf("base85 group must be %d bytes, got %d", groupSize, len(group))
	}
	var v uint32
	for _, b := range group {
		if b < 33 || b > 117 {
			return 0, fmt.Errorf("byte 0x%02x outside base85 alphabet", b)
		}
		v = v*85 + uint32(b-33)
	}
	return v, nil
}

// EncodeBase85 packs a 32-bit value into its 5-byte radix-85 group.
func EncodeBase85(v uint32) []byte {
	group := make([]byte, groupSize)
	for i := groupSize - 1; i >= 0; i-- {
		group[i] = byte(v%85) + 33
		v /= 85
	}
	return group
}
