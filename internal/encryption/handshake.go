package encryption

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Fixed exchange parameters mirroring the official client. The service side
// does not contribute a fresh public value per connection; every client
// derives its login key against this hardcoded one. Unusual for a
// Diffie-Hellman flow, but it is what the server expects, so the constants
// and the direction of exponentiation must not be changed.
const (
	modulusHex = "e7872736bc988679a45b7458655465fb11fee82f7f62ef499f053d7b" +
		"721bbbf85ef5a0753ca7f0fc0c14a0a8321afe6c7c29b4448884058e3222eadedc4b" +
		"6460cf4acb2be36738603158844ba5f5d1c2ee1b587d9ee441f40819473c0cb375c8" +
		"487f2b5557a65e6823cb045f381bd6a7ef4f680235df2c657dec20f9fd2b9ef34241" +
		"a7b9ee34263490c99457d3eb4529b0c3076910ca1dc35a23b0848d6f9541871ac6ca" +
		"143a614956183136c706c5d8546b1888561dffb72a4e9aeeef3102600effe165eb5e" +
		"1920719946240cdcde1ce5fd57a21847a8b44db33310c726ba7f98b064032868c89e" +
		"ec3fd0dd89f7f859ae144eba6b648dda5af0f9e026d9bf47"

	servicePublicHex = "3f8af4bd006c9d45cd76cdcc04ff84cb8ba23b169f283129436b" +
		"64d7c507675f5cf61d506621bd8070e3545e0c986263188e7716b510f129245faa82" +
		"5891715d0e6366c9bf0656b295709eb7e0805e01f88b5201166a55c2483bf87be2c9" +
		"5d18b8421ea050cd61870b22f43e79b54273855a6a126a0b61d5774e65145e10a869" +
		"f6820ae99e779559e3de2cf264458b96ddc29b9735d07731ebecbe0a8f1dc46c0a1d" +
		"cdfbb75bdf842cc844873c64c57ed1621c6aefbee63e06ce4e2609e7d7cebc865aab" +
		"27838d830256adc557f8fe896d2532470d27c7817eae0a93caeb81439a8d9f99a3a3" +
		"4c64dd6478226246515a76327ac9cbb8e909e1dec4cc6244d10e"

	generator = 5

	// Size in bytes of the random private exponent.
	exponentSize = 32
)

// keyExchange holds the modular exchange parameters. Production code uses
// the package-level instance built from the fixed constants; tests substitute
// small parameters to keep the arithmetic checkable.
type keyExchange struct {
	modulus       *big.Int
	generator     *big.Int
	servicePublic *big.Int
}

var defaultExchange = mustKeyExchange(modulusHex, servicePublicHex)

// mustKeyExchange parses the hex constants. The values are fixed at compile
// time, so a parse failure is a build defect and panics at init.
func mustKeyExchange(modHex, publicHex string) *keyExchange {
	modulus, ok := new(big.Int).SetString(modHex, 16)
	if !ok {
		panic("encryption: malformed exchange modulus constant")
	}
	public, ok := new(big.Int).SetString(publicHex, 16)
	if !ok {
		panic("encryption: malformed service public value constant")
	}
	return &keyExchange{
		modulus:       modulus,
		generator:     big.NewInt(generator),
		servicePublic: public,
	}
}

// LoginCredential performs the key exchange and returns the credential sent
// as the final argument of the login request: the client's public value in
// hex, a dash, and the encrypted login blob.
func LoginCredential(username, serverSeed, password string) (string, error) {
	return defaultExchange.credential(username, serverSeed, password)
}

func (x *keyExchange) credential(username, serverSeed, password string) (string, error) {
	private, err := randomExponent()
	if err != nil {
		return "", fmt.Errorf("generating private exponent: %w", err)
	}

	public := new(big.Int).Exp(x.generator, private, x.modulus)
	shared := new(big.Int).Exp(x.servicePublic, private, x.modulus)

	plaintext, err := loginPlaintext(username + "|" + serverSeed + "|" + password)
	if err != nil {
		return "", err
	}

	ciphertext, err := EncryptStream(normalizeKey(shared), plaintext)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x-%s", public, ciphertext), nil
}

func randomExponent() (*big.Int, error) {
	raw := make([]byte, exponentSize)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	private := new(big.Int).SetBytes(raw)
	if private.Sign() == 0 {
		// All-zero output from the CSPRNG is effectively unreachable, but a
		// zero exponent would leak the credential.
		return nil, fmt.Errorf("zero private exponent")
	}
	return private, nil
}

// normalizeKey renders the shared secret as exactly 32 hex characters,
// left-padding with zeroes or dropping leading characters as needed, and
// decodes it into the 16-byte cipher key.
func normalizeKey(shared *big.Int) [16]byte {
	h := fmt.Sprintf("%x", shared)
	if len(h) < 32 {
		h = fmt.Sprintf("%032s", h)
	} else if len(h) > 32 {
		h = h[len(h)-32:]
	}

	var key [16]byte
	raw, _ := hex.DecodeString(h)
	copy(key[:], raw)
	return key
}

// loginPlaintext assembles the block the login key encrypts: an 8-byte
// random nonce, the big-endian length of the credential string, the string
// itself, and space padding out to the cipher block size.
func loginPlaintext(credential string) ([]byte, error) {
	buf := make([]byte, 12, 12+len(credential)+BlockSize)
	if _, err := rand.Read(buf[:8]); err != nil {
		return nil, fmt.Errorf("generating login nonce: %w", err)
	}
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(credential)))

	buf = append(buf, credential...)
	for len(buf)%BlockSize != 0 {
		buf = append(buf, ' ')
	}
	return buf, nil
}
