package crypto

import "errors"

var (
	// ErrInvalidSecretKeySize is returned when a KEM secret key size is invalid.
	ErrInvalidSecretKeySize = errors.New("invalid secret key size")

	// ErrInvalidPublicKeySize is returned when a KEM public key size is invalid.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidCiphertextSize is returned when a KEM ciphertext size is invalid.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrInvalidSigningKeySize is returned when an ML-DSA key size is invalid.
	ErrInvalidSigningKeySize = errors.New("invalid signing key size")

	// ErrSignatureVerificationFailed is returned when signature verification fails.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")

	// ErrDecryptionFailed is returned when AEAD decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrDecapsulationFailed is returned when KEM decapsulation fails.
	ErrDecapsulationFailed = errors.New("decapsulation failed")

	// ErrUnwrapFailed is returned when key unwrapping fails its integrity check.
	ErrUnwrapFailed = errors.New("key unwrap failed")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidWrapInput is returned when key-wrap input is not a multiple of
	// 8 bytes or is too short.
	ErrInvalidWrapInput = errors.New("invalid key wrap input")
)
