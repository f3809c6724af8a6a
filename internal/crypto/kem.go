package crypto

import (
	"crypto/rand"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
)

// randReader is the random source used for key generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// kemScheme is the ML-KEM-1024 scheme used for all encapsulation.
var kemScheme = mlkem1024.Scheme()

// Keypair represents an ML-KEM-1024 keypair for key encapsulation.
type Keypair struct {
	// PublicKey is the raw ML-KEM-1024 public key bytes.
	PublicKey []byte
	// SecretKey is the raw ML-KEM-1024 secret key bytes.
	SecretKey []byte
}

// GenerateKeypair creates a new ML-KEM-1024 keypair.
func GenerateKeypair() (*Keypair, error) {
	seed := make([]byte, kemScheme.SeedSize())
	defer Wipe(seed)

	r := randReader
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, err
	}

	pub, priv := kemScheme.DeriveKeyPair(seed)

	// MarshalBinary never fails for keys derived by the scheme.
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &Keypair{
		PublicKey: pubBytes,
		SecretKey: privBytes,
	}, nil
}

// NewKeypairFromBytes creates a keypair from raw bytes.
func NewKeypairFromBytes(secretKey, publicKey []byte) (*Keypair, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, ErrInvalidPublicKeySize
	}

	// Validate that both keys can be parsed.
	if _, err := kemScheme.UnmarshalBinaryPrivateKey(secretKey); err != nil {
		return nil, err
	}
	if _, err := kemScheme.UnmarshalBinaryPublicKey(publicKey); err != nil {
		return nil, err
	}

	return &Keypair{
		PublicKey: publicKey,
		SecretKey: secretKey,
	}, nil
}

// Encapsulate performs a fresh ML-KEM-1024 encapsulation against the given
// public key, returning the KEM ciphertext and the 32-byte shared secret.
// Every call uses fresh randomness; ciphertexts are never reused.
func Encapsulate(publicKey []byte) (ciphertext, sharedSecret []byte, err error) {
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, nil, ErrInvalidPublicKeySize
	}

	pub, err := kemScheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, err
	}

	return kemScheme.Encapsulate(pub)
}

// Decapsulate recovers the shared secret from a KEM ciphertext using the
// given secret key.
func Decapsulate(secretKey, ciphertext []byte) ([]byte, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}
	if len(ciphertext) != MLKEMCiphertextSize {
		return nil, ErrInvalidCiphertextSize
	}

	priv, err := kemScheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return nil, err
	}

	sharedSecret, err := kemScheme.Decapsulate(priv, ciphertext)
	if err != nil {
		return nil, ErrDecapsulationFailed
	}

	return sharedSecret, nil
}
