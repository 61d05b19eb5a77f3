package persist

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/trailofbits/hsslms-go/lms/common"
)

// pbkdf2Iterations and keyLen match spec's "HMAC-SHA-256, 390,000
// iterations, 32-byte output" figure.
const (
	pbkdf2Iterations = 390000
	keyLen           = 32
	saltLen          = 16
)

// deriveKey runs PBKDF2-HMAC-SHA256 over password and salt to produce the
// AEAD key. salt must be saltLen bytes.
func deriveKey(password, salt []byte) [keyLen]byte {
	derived := pbkdf2.Key(password, salt, pbkdf2Iterations, keyLen, sha256.New)
	var key [keyLen]byte
	copy(key[:], derived)
	return key
}

// newSalt draws a fresh random salt for a new container.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, common.WrapFailure(err, "persist: failed to read randomness for salt")
	}
	return salt, nil
}
