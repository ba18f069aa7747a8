package encryption

import (
	"bytes"
	"encoding/hex"
	"testing"
)

var testKey = [16]byte{
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
	0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10,
}

func TestEncryptStreamRoundTrip(t *testing.T) {
	plaintext := []byte("exactly twentyfour bytes")
	if len(plaintext)%BlockSize != 0 {
		t.Fatalf("test plaintext must be block aligned, got %d bytes", len(plaintext))
	}

	ciphertext, err := EncryptStream(testKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptStream() returned error: %s", err)
	}

	// Two hex characters per byte.
	if len(ciphertext) != 2*len(plaintext) {
		t.Errorf("expected %d hex characters, got %d", 2*len(plaintext), len(ciphertext))
	}
	if _, err := hex.DecodeString(ciphertext); err != nil {
		t.Errorf("expected valid hex output, got error: %s", err)
	}

	decrypted, err := DecryptStream(testKey, ciphertext)
	if err != nil {
		t.Fatalf("DecryptStream() returned error: %s", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("expected decryption to recover plaintext, got %q", decrypted)
	}
}

func TestEncryptStreamDifferentKeys(t *testing.T) {
	plaintext := []byte("16 byte message!")

	first, err := EncryptStream(testKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptStream() returned error: %s", err)
	}

	otherKey := testKey
	otherKey[0] ^= 0xFF
	second, err := EncryptStream(otherKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptStream() returned error: %s", err)
	}

	if first == second {
		t.Errorf("expected different keys to produce different ciphertext")
	}
}

func TestEncryptStreamChainsBlocks(t *testing.T) {
	// Two identical plaintext blocks must not produce identical ciphertext
	// blocks because each block is XORed with the previous ciphertext.
	plaintext := append([]byte("samepart"), []byte("samepart")...)

	ciphertext, err := EncryptStream(testKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptStream() returned error: %s", err)
	}
	if ciphertext[:16] == ciphertext[16:32] {
		t.Errorf("expected chained blocks to differ, both were %s", ciphertext[:16])
	}
}

func TestEncryptStreamRejectsUnalignedInput(t *testing.T) {
	if _, err := EncryptStream(testKey, []byte("short")); err == nil {
		t.Errorf("expected an error for input not aligned to the block size")
	}
}

func TestDecryptAccumulatorWraps(t *testing.T) {
	// rounds * delta overflows 32 bits; decrypt must start from the wrapped
	// value encrypt ends on, not the widened product.
	sum := uint32(delta)
	sum *= rounds
	if sum != 0xC6EF3720 {
		t.Errorf("expected the accumulator to wrap to 0xC6EF3720, got %#x", sum)
	}
}

func TestBlockPermutationInverts(t *testing.T) {
	cipher := newLoginCipher(testKey)

	v0, v1 := cipher.encrypt(0xDEADBEEF, 0x00C0FFEE)
	if v0 == 0xDEADBEEF && v1 == 0x00C0FFEE {
		t.Fatalf("expected the permutation to change the block")
	}

	p0, p1 := cipher.decrypt(v0, v1)
	if p0 != 0xDEADBEEF || p1 != 0x00C0FFEE {
		t.Errorf("expected decrypt to invert encrypt, got %08x %08x", p0, p1)
	}
}
