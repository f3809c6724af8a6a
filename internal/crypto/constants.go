package crypto

const (
	// SyncContext is the context string used in HKDF key derivation for the
	// device-sync envelope, for domain separation.
	SyncContext = "groupkey:sync:v1"

	// MLKEMPublicKeySize is the size of an ML-KEM-1024 public key in bytes.
	MLKEMPublicKeySize = 1568
	// MLKEMSecretKeySize is the size of an ML-KEM-1024 secret key in bytes.
	MLKEMSecretKeySize = 3168
	// MLKEMCiphertextSize is the size of an ML-KEM-1024 ciphertext in bytes.
	MLKEMCiphertextSize = 1568
	// MLKEMSharedKeySize is the size of the shared secret from ML-KEM-1024 in bytes.
	MLKEMSharedKeySize = 32

	// MLDSAPublicKeySize is the size of an ML-DSA-87 public key in bytes.
	MLDSAPublicKeySize = 2592
	// MLDSASecretKeySize is the size of an ML-DSA-87 secret key in bytes.
	MLDSASecretKeySize = 4896
	// MLDSASignatureSize is the size of an ML-DSA-87 signature in bytes.
	MLDSASignatureSize = 4627

	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// KeyWrapOverhead is the number of bytes RFC 3394 key wrapping adds to
	// its input. Wrapping a 32-byte key yields 40 bytes.
	KeyWrapOverhead = 8

	// GEKSize is the size of a group encryption key in bytes.
	GEKSize = 32

	// FingerprintSize is the size of a member identity fingerprint in bytes
	// (SHA-512 of the member's public keys).
	FingerprintSize = 64
)

// AlgsCiphersuite is the canonical string representation of the algorithm suite.
var AlgsCiphersuite = "ML-KEM-1024:ML-DSA-87:AES-256-GCM:AES-KW:HKDF-SHA-512"
