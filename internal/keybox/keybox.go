// Package keybox seals 32-byte keys under a device's own ML-KEM-1024 keypair
// for storage in the local key-value store.
//
// Blob layout, bit-exact:
//
//	kem_ciphertext(1568) || nonce(12) || tag(16) || ciphertext(32)
//
// Every Seal performs a fresh KEM encapsulation, so each stored blob has
// independent forward secrecy: breaking one ciphertext after a later
// long-term key exposure does not affect the others.
package keybox

import (
	"fmt"

	"github.com/pqmsg/groupkey-go/internal/crypto"
)

// BlobSize is the exact size of a sealed key blob.
const BlobSize = crypto.MLKEMCiphertextSize + crypto.AESNonceSize + crypto.AESTagSize + crypto.GEKSize

const (
	nonceOffset = crypto.MLKEMCiphertextSize
	tagOffset   = nonceOffset + crypto.AESNonceSize
	ctOffset    = tagOffset + crypto.AESTagSize
)

// Seal encrypts a 32-byte key to the given KEM public key.
//
// A fresh encapsulation yields a one-time shared secret which keys
// AES-256-GCM directly; the key is sealed with a fresh nonce.
func Seal(key, kemPublicKey []byte) ([]byte, error) {
	if len(key) != crypto.GEKSize {
		return nil, fmt.Errorf("seal: key must be %d bytes, got %d", crypto.GEKSize, len(key))
	}

	kemCT, sharedSecret, err := crypto.Encapsulate(kemPublicKey)
	if err != nil {
		return nil, fmt.Errorf("seal: encapsulate: %w", err)
	}
	defer crypto.Wipe(sharedSecret)

	nonce, err := crypto.RandomNonce()
	if err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}

	// sealed is ciphertext(32) || tag(16); the blob stores tag first.
	sealed, err := crypto.EncryptAESGCM(sharedSecret, nonce, nil, key)
	if err != nil {
		return nil, fmt.Errorf("seal: encrypt: %w", err)
	}

	blob := make([]byte, 0, BlobSize)
	blob = append(blob, kemCT...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed[crypto.GEKSize:]...) // tag
	blob = append(blob, sealed[:crypto.GEKSize]...) // ciphertext
	return blob, nil
}

// Open reverses Seal: decapsulate to recover the shared secret, then
// AEAD-decrypt-and-verify. A tag mismatch is a hard failure; no partial
// plaintext is ever returned.
func Open(blob, kemSecretKey []byte) ([]byte, error) {
	if len(blob) != BlobSize {
		return nil, fmt.Errorf("open: blob must be %d bytes, got %d", BlobSize, len(blob))
	}

	kemCT := blob[:nonceOffset]
	nonce := blob[nonceOffset:tagOffset]
	tag := blob[tagOffset:ctOffset]
	ciphertext := blob[ctOffset:]

	sharedSecret, err := crypto.Decapsulate(kemSecretKey, kemCT)
	if err != nil {
		return nil, fmt.Errorf("open: decapsulate: %w", err)
	}
	defer crypto.Wipe(sharedSecret)

	// Reassemble ciphertext || tag for GCM.
	sealed := make([]byte, 0, crypto.GEKSize+crypto.AESTagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	key, err := crypto.DecryptAESGCM(sharedSecret, nonce, nil, sealed)
	if err != nil {
		crypto.Wipe(key)
		return nil, fmt.Errorf("open: %w", err)
	}

	return key, nil
}
