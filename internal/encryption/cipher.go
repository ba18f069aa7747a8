// Implementation of the chat server's login cipher: a TEA-style block
// permutation chained CBC-fashion across 8-byte blocks, emitting the
// ciphertext as byte-order-reversed hex. Only the login handshake uses it;
// all other traffic is sent in the clear.
package encryption

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// The login cipher block size in bytes.
const BlockSize = 8

const (
	// Golden ratio constant accumulated across the inner rounds.
	delta  = 0x9E3779B9
	rounds = 32
)

// loginCipher is an instance of the block permutation keyed with the four
// subkeys derived from a 16-byte key.
type loginCipher struct {
	k [4]uint32
}

func newLoginCipher(key [16]byte) *loginCipher {
	var c loginCipher
	for i := range c.k {
		c.k[i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	return &c
}

// encrypt applies the 64-round permutation to one block. All arithmetic
// wraps at 32 bits.
func (c *loginCipher) encrypt(v0, v1 uint32) (uint32, uint32) {
	var sum uint32
	for i := 0; i < rounds; i++ {
		sum += delta
		v0 += ((v1 << 4) + c.k[0]) ^ (v1 + sum) ^ ((v1 >> 5) + c.k[1])
		v1 += ((v0 << 4) + c.k[2]) ^ (v0 + sum) ^ ((v0 >> 5) + c.k[3])
	}
	return v0, v1
}

// decrypt inverts encrypt. The protocol itself never decrypts (the server
// does), but the inverse keeps the permutation testable.
func (c *loginCipher) decrypt(v0, v1 uint32) (uint32, uint32) {
	// The accumulator after a full encrypt, with 32-bit wraparound applied
	// at runtime since the product overflows an untyped constant.
	sum := uint32(delta)
	sum *= rounds
	for i := 0; i < rounds; i++ {
		v1 -= ((v0 << 4) + c.k[2]) ^ (v0 + sum) ^ ((v0 >> 5) + c.k[3])
		v0 -= ((v1 << 4) + c.k[0]) ^ (v1 + sum) ^ ((v1 >> 5) + c.k[1])
		sum -= delta
	}
	return v0, v1
}

// EncryptStream encrypts plaintext under key and returns the hex-encoded
// ciphertext in the wire's hex form. The plaintext length must be a multiple
// of the block size; callers pad with spaces.
//
// Blocks are chained: each block's two little-endian words are XORed with the
// previous block's ciphertext words (zero for the first block) before the
// permutation. Each ciphertext word is emitted with its bytes reversed so the
// hex string is identical regardless of host byte order.
func EncryptStream(key [16]byte, plaintext []byte) (string, error) {
	if len(plaintext)%BlockSize != 0 {
		return "", fmt.Errorf("plaintext length %d is not a multiple of %d", len(plaintext), BlockSize)
	}

	cipher := newLoginCipher(key)
	var out strings.Builder
	var prev0, prev1 uint32
	var word [4]byte

	for i := 0; i < len(plaintext); i += BlockSize {
		v0 := binary.LittleEndian.Uint32(plaintext[i:i+4]) ^ prev0
		v1 := binary.LittleEndian.Uint32(plaintext[i+4:i+8]) ^ prev1
		prev0, prev1 = cipher.encrypt(v0, v1)

		binary.LittleEndian.PutUint32(word[:], prev0)
		out.WriteString(hex.EncodeToString(word[:]))
		binary.LittleEndian.PutUint32(word[:], prev1)
		out.WriteString(hex.EncodeToString(word[:]))
	}
	return out.String(), nil
}

// DecryptStream inverts EncryptStream, recovering the padded plaintext from
// the wire's hex form.
func DecryptStream(key [16]byte, ciphertext string) ([]byte, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext: %s", err)
	}
	if len(raw)%BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(raw), BlockSize)
	}

	cipher := newLoginCipher(key)
	plaintext := make([]byte, len(raw))
	var prev0, prev1 uint32

	for i := 0; i < len(raw); i += BlockSize {
		c0 := binary.LittleEndian.Uint32(raw[i : i+4])
		c1 := binary.LittleEndian.Uint32(raw[i+4 : i+8])

		v0, v1 := cipher.decrypt(c0, c1)
		binary.LittleEndian.PutUint32(plaintext[i:i+4], v0^prev0)
		binary.LittleEndian.PutUint32(plaintext[i+4:i+8], v1^prev1)

		prev0, prev1 = c0, c1
	}
	return plaintext, nil
}
