package groupkey

import (
	"crypto/sha512"
	"fmt"

	"github.com/pqmsg/groupkey-go/internal/crypto"
)

// Identity holds the local device's long-term key material.
// WARNING: contains private keys - handle securely and never log.
type Identity struct {
	// Fingerprint is the 64-byte identity hash
	// (SHA-512 of KEMPublicKey || SigningPublicKey).
	Fingerprint []byte
	// KEMPublicKey is the raw ML-KEM-1024 public key (1568 bytes).
	KEMPublicKey []byte
	// KEMSecretKey is the raw ML-KEM-1024 secret key (3168 bytes).
	KEMSecretKey []byte
	// SigningPublicKey is the raw ML-DSA-87 public key (2592 bytes).
	SigningPublicKey []byte
	// SigningSecretKey is the raw ML-DSA-87 secret key (4896 bytes).
	SigningSecretKey []byte
}

// GenerateIdentity creates a fresh identity with new KEM and signing
// keypairs. The fingerprint is derived from the two public keys.
func GenerateIdentity() (*Identity, error) {
	kem, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	signing, err := crypto.GenerateSigningKeypair()
	if err != nil {
		return nil, err
	}

	return &Identity{
		Fingerprint:      Fingerprint(kem.PublicKey, signing.PublicKey),
		KEMPublicKey:     kem.PublicKey,
		KEMSecretKey:     kem.SecretKey,
		SigningPublicKey: signing.PublicKey,
		SigningSecretKey: signing.SecretKey,
	}, nil
}

// Fingerprint computes the 64-byte identity hash over the given public keys.
func Fingerprint(kemPublicKey, signingPublicKey []byte) []byte {
	h := sha512.New()
	h.Write(kemPublicKey)
	h.Write(signingPublicKey)
	return h.Sum(nil)
}

// Validate checks that the identity's key material has the correct sizes and
// that the KEM keypair parses.
func (id *Identity) Validate() error {
	if id == nil {
		return fmt.Errorf("%w: nil identity", ErrInvalidArgument)
	}
	if len(id.Fingerprint) != crypto.FingerprintSize {
		return fmt.Errorf("%w: fingerprint must be %d bytes, got %d", ErrInvalidArgument, crypto.FingerprintSize, len(id.Fingerprint))
	}
	if _, err := crypto.NewKeypairFromBytes(id.KEMSecretKey, id.KEMPublicKey); err != nil {
		return fmt.Errorf("%w: kem keypair: %v", ErrInvalidArgument, err)
	}
	if len(id.SigningPublicKey) != crypto.MLDSAPublicKeySize {
		return fmt.Errorf("%w: signing public key must be %d bytes, got %d", ErrInvalidArgument, crypto.MLDSAPublicKeySize, len(id.SigningPublicKey))
	}
	if len(id.SigningSecretKey) != crypto.MLDSASecretKeySize {
		return fmt.Errorf("%w: signing secret key must be %d bytes, got %d", ErrInvalidArgument, crypto.MLDSASecretKeySize, len(id.SigningSecretKey))
	}
	return nil
}
