// Package ikp builds and parses Initial Key Packets, the signed
// multi-recipient artifacts that distribute one group encryption key version
// to every current group member.
//
// Wire format, bit-exact:
//
//	offset 0  : magic         (4 bytes, big-endian constant)
//	offset 4  : group_id      (36 bytes, raw UUID string, no terminator)
//	offset 40 : version       (4 bytes, big-endian)
//	offset 44 : member_count  (1 byte)
//	offset 45 : member_count x { fingerprint(64) || kem_ct(1568) || wrapped_key(40) }
//	then      : sig_type(1) || sig_len(2, big-endian) || signature
//
// The packet is self-describing: its size is computable from member_count.
// Entries appear in insertion order; order carries no meaning and lookups
// must match on the fingerprint field only.
package ikp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pqmsg/groupkey-go/internal/crypto"
)

const (
	// Magic is the packet magic constant ("GKP1").
	Magic uint32 = 0x474B5031

	// GroupIDSize is the raw length of a group id (36-byte UUID string).
	GroupIDSize = 36

	// MaxMembers bounds member_count so a hostile packet cannot force a
	// large allocation.
	MaxMembers = 128

	// SigTypeMLDSA87 identifies an ML-DSA-87 trailing signature.
	SigTypeMLDSA87 = 0x01

	headerSize = 4 + GroupIDSize + 4 + 1

	entrySize = crypto.FingerprintSize + crypto.MLKEMCiphertextSize +
		crypto.GEKSize + crypto.KeyWrapOverhead

	sigBlockFixed = 1 + 2
)

// Member is one recipient of a packet under construction. It is transient
// build-time input and is never persisted by this package.
type Member struct {
	// Fingerprint is the member's 64-byte identity hash.
	Fingerprint []byte
	// KEMPublicKey is the member's ML-KEM-1024 public key.
	KEMPublicKey []byte
}

// Build encodes one key version wrapped individually for every member and
// signs the result once with the group owner's signing key.
//
// For each member an independent KEM encapsulation derives a per-member
// key-encryption-key; the group key is wrapped under it with deterministic
// AES key wrap (no nonce, 40-byte output).
func Build(groupID string, version uint32, key []byte, members []Member, signingKey []byte) ([]byte, error) {
	if len(groupID) != GroupIDSize {
		return nil, fmt.Errorf("%w: group id must be %d bytes, got %d", ErrInvalidArgument, GroupIDSize, len(groupID))
	}
	if len(key) != crypto.GEKSize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidArgument, crypto.GEKSize, len(key))
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	if len(members) > MaxMembers {
		return nil, ErrTooManyMembers
	}
	for i, m := range members {
		if len(m.Fingerprint) != crypto.FingerprintSize {
			return nil, fmt.Errorf("%w: member %d fingerprint must be %d bytes", ErrInvalidArgument, i, crypto.FingerprintSize)
		}
		if len(m.KEMPublicKey) != crypto.MLKEMPublicKeySize {
			return nil, fmt.Errorf("%w: member %d public key must be %d bytes", ErrInvalidArgument, i, crypto.MLKEMPublicKeySize)
		}
	}

	packet := make([]byte, 0, headerSize+len(members)*entrySize+sigBlockFixed+crypto.MLDSASignatureSize)
	packet = binary.BigEndian.AppendUint32(packet, Magic)
	packet = append(packet, groupID...)
	packet = binary.BigEndian.AppendUint32(packet, version)
	packet = append(packet, byte(len(members)))

	for _, m := range members {
		kemCT, kek, err := crypto.Encapsulate(m.KEMPublicKey)
		if err != nil {
			return nil, fmt.Errorf("encapsulate for member: %w", err)
		}

		wrapped, err := crypto.WrapKey(kek, key)
		crypto.Wipe(kek)
		if err != nil {
			return nil, fmt.Errorf("wrap key for member: %w", err)
		}

		packet = append(packet, m.Fingerprint...)
		packet = append(packet, kemCT...)
		packet = append(packet, wrapped...)
	}

	sig, err := crypto.Sign(signingKey, packet)
	if err != nil {
		return nil, fmt.Errorf("sign packet: %w", err)
	}

	packet = append(packet, SigTypeMLDSA87)
	packet = binary.BigEndian.AppendUint16(packet, uint16(len(sig)))
	packet = append(packet, sig...)
	return packet, nil
}

// Extract scans the packet for the caller's fingerprint and recovers the key
// version it carries.
//
// Extract does not authenticate the packet. Callers must Verify first;
// extracting from an unverified packet may expose them to forged key material.
func Extract(packet, fingerprint, kemSecretKey []byte) ([]byte, uint32, error) {
	if len(fingerprint) != crypto.FingerprintSize {
		return nil, 0, fmt.Errorf("%w: fingerprint must be %d bytes", ErrInvalidArgument, crypto.FingerprintSize)
	}

	hdr, r, err := parseHeader(packet)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < hdr.memberCount; i++ {
		fp, err := r.take(crypto.FingerprintSize)
		if err != nil {
			return nil, 0, err
		}
		kemCT, err := r.take(crypto.MLKEMCiphertextSize)
		if err != nil {
			return nil, 0, err
		}
		wrapped, err := r.take(crypto.GEKSize + crypto.KeyWrapOverhead)
		if err != nil {
			return nil, 0, err
		}

		if !bytes.Equal(fp, fingerprint) {
			continue
		}

		kek, err := crypto.Decapsulate(kemSecretKey, kemCT)
		if err != nil {
			return nil, 0, err
		}

		key, err := crypto.UnwrapKey(kek, wrapped)
		crypto.Wipe(kek)
		if err != nil {
			return nil, 0, err
		}

		return key, hdr.version, nil
	}

	return nil, 0, ErrNotRecipient
}

// Verify recomputes the signed region boundary from member_count and checks
// the trailing signature against the claimed group owner's public key.
func Verify(packet, signingPublicKey []byte) error {
	hdr, r, err := parseHeader(packet)
	if err != nil {
		return err
	}

	if _, err := r.take(hdr.memberCount * entrySize); err != nil {
		return err
	}
	signedRegion := packet[:r.off]

	sigType, err := r.u8()
	if err != nil {
		return err
	}
	if sigType != SigTypeMLDSA87 {
		return fmt.Errorf("%w: unknown sig_type %#02x", ErrBadSignatureBlock, sigType)
	}

	sigLen, err := r.u16()
	if err != nil {
		return err
	}
	if int(sigLen) > crypto.MLDSASignatureSize {
		return fmt.Errorf("%w: sig_len %d exceeds maximum %d", ErrBadSignatureBlock, sigLen, crypto.MLDSASignatureSize)
	}

	sig, err := r.take(int(sigLen))
	if err != nil {
		return err
	}

	if err := crypto.VerifySig(signingPublicKey, signedRegion, sig); err != nil {
		return ErrSignatureInvalid
	}
	return nil
}

// Version reads the packet's key version from the header alone. It performs
// no validation beyond the header and is intended for cheap version probing.
func Version(packet []byte) (uint32, error) {
	hdr, _, err := parseHeader(packet)
	if err != nil {
		return 0, err
	}
	return hdr.version, nil
}

// MemberCount reads the packet's member count from the header alone.
func MemberCount(packet []byte) (int, error) {
	hdr, _, err := parseHeader(packet)
	if err != nil {
		return 0, err
	}
	return hdr.memberCount, nil
}

// GroupID reads the packet's group id from the header alone.
func GroupID(packet []byte) (string, error) {
	hdr, _, err := parseHeader(packet)
	if err != nil {
		return "", err
	}
	return hdr.groupID, nil
}
