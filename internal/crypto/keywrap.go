package crypto

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
)

// kwIV is the RFC 3394 initial value used as the wrap integrity check.
var kwIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// WrapKey wraps plaintext key material under kek using AES key wrap
// (RFC 3394). The wrap is deterministic: no nonce, and the output is exactly
// len(plaintext) + KeyWrapOverhead bytes. plaintext must be a multiple of
// 8 bytes and at least 16 bytes.
func WrapKey(kek, plaintext []byte) ([]byte, error) {
	if len(kek) != AESKeySize {
		return nil, ErrInvalidKeySize
	}
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, ErrInvalidWrapInput
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8

	// r holds the registers R[1]..R[n]; a is the 64-bit integrity register.
	out := make([]byte, (n+1)*8)
	a := out[:8]
	copy(a, kwIV[:])
	copy(out[8:], plaintext)

	var buf [16]byte
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			ri := out[i*8 : (i+1)*8]
			copy(buf[:8], a)
			copy(buf[8:], ri)
			block.Encrypt(buf[:], buf[:])
			t := uint64(n*j + i)
			copy(a, buf[:8])
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(a)^t)
			copy(a, buf[:8])
			copy(ri, buf[8:])
		}
	}

	return out, nil
}

// UnwrapKey reverses WrapKey, recovering the wrapped key material. A failed
// integrity check is reported as ErrUnwrapFailed and no output is returned.
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	if len(kek) != AESKeySize {
		return nil, ErrInvalidKeySize
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, ErrInvalidWrapInput
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1

	var a [8]byte
	copy(a[:], wrapped[:8])
	out := make([]byte, n*8)
	copy(out, wrapped[8:])

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(a[:])^t)
			copy(buf[8:], out[(i-1)*8:i*8])
			block.Decrypt(buf[:], buf[:])
			copy(a[:], buf[:8])
			copy(out[(i-1)*8:i*8], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], kwIV[:]) != 1 {
		Wipe(out)
		return nil, ErrUnwrapFailed
	}

	return out, nil
}
