package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
)

// SigningKeypair represents an ML-DSA-87 keypair.
type SigningKeypair struct {
	// PublicKey is the raw ML-DSA-87 public key bytes.
	PublicKey []byte
	// SecretKey is the raw ML-DSA-87 secret key bytes.
	SecretKey []byte
}

// GenerateSigningKeypair creates a new ML-DSA-87 keypair.
func GenerateSigningKeypair() (*SigningKeypair, error) {
	r := randReader
	if r == nil {
		r = rand.Reader
	}

	pub, priv, err := mldsa87.GenerateKey(r)
	if err != nil {
		return nil, err
	}

	// MarshalBinary never fails for freshly generated keys.
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &SigningKeypair{
		PublicKey: pubBytes,
		SecretKey: privBytes,
	}, nil
}

// Sign produces an ML-DSA-87 signature over message with the given secret key.
// The signature is always MLDSASignatureSize bytes.
func Sign(secretKey, message []byte) ([]byte, error) {
	if len(secretKey) != MLDSASecretKeySize {
		return nil, ErrInvalidSigningKeySize
	}

	priv := &mldsa87.PrivateKey{}
	if err := priv.UnmarshalBinary(secretKey); err != nil {
		return nil, fmt.Errorf("unmarshal signing key: %w", err)
	}

	sig := make([]byte, MLDSASignatureSize)
	if err := mldsa87.SignTo(priv, message, nil, false, sig); err != nil {
		return nil, err
	}

	return sig, nil
}

// VerifySig verifies an ML-DSA-87 signature.
func VerifySig(publicKey, message, signature []byte) error {
	if len(publicKey) != MLDSAPublicKeySize {
		return ErrInvalidSigningKeySize
	}

	pub := &mldsa87.PublicKey{}
	if err := pub.UnmarshalBinary(publicKey); err != nil {
		return fmt.Errorf("unmarshal public key: %w", err)
	}

	if !mldsa87.Verify(pub, message, nil, signature) {
		return ErrSignatureVerificationFailed
	}

	return nil
}
