package crypto

import (
	"crypto/rand"

	"github.com/awnumar/memguard"
)

// Wipe overwrites the buffer with zeros. Every buffer that held raw key, KEK,
// or plaintext material must be wiped on every exit path, including error
// paths. Nil and empty slices are no-ops.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}

// RandomKey returns a fresh 32-byte key from the CSPRNG.
func RandomKey() ([]byte, error) {
	key := make([]byte, GEKSize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// RandomNonce returns a fresh AES-GCM nonce from the CSPRNG.
func RandomNonce() ([]byte, error) {
	nonce := make([]byte, AESNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
