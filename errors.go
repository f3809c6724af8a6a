package groupkey

import (
	"errors"
	"fmt"

	"github.com/pqmsg/groupkey-go/ikp"
	"github.com/pqmsg/groupkey-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidArgument is returned for null, empty, or oversized inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when no record or no matching recipient entry
	// exists.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a record exists but is past its TTL.
	// Distinct from ErrNotFound so callers can decide whether to trigger a
	// refresh.
	ErrExpired = errors.New("key expired")

	// ErrCryptoFailure is returned when a KEM, AEAD, key-wrap, or signature
	// operation fails, including authentication-tag mismatches.
	ErrCryptoFailure = errors.New("crypto failure")

	// ErrMalformedPacket is returned for header, length, or bounds
	// violations in an initial key packet.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrNotRecipient is returned when a packet carries no entry for the
	// local identity. Matches ErrNotFound in errors.Is checks.
	ErrNotRecipient = errors.New("not a recipient")

	// ErrNotOwner is returned when rotation is attempted by an identity
	// that does not own the group.
	ErrNotOwner = errors.New("not the group owner")

	// ErrPersistence is returned when the local key-value store fails.
	ErrPersistence = errors.New("persistence failure")

	// ErrTransport is returned when the external storage substrate fails.
	ErrTransport = errors.New("transport failure")
)

// CryptoError reports a failed cryptographic operation. It never carries key
// material.
type CryptoError struct {
	// Op names the failed operation ("seal", "open", "extract", "verify").
	Op string
	// Unavailable marks failures that callers should treat the same as a
	// missing key (at-rest decryption failures per the store contract).
	Unavailable bool
	Err         error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto failure in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CryptoError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching. Unavailable crypto
// failures also match ErrNotFound, since callers must treat an unopenable
// record the same as a missing one.
func (e *CryptoError) Is(target error) bool {
	if target == ErrCryptoFailure {
		return true
	}
	return e.Unavailable && target == ErrNotFound
}

// PacketError reports a malformed initial key packet.
type PacketError struct {
	Err error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("malformed packet: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PacketError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *PacketError) Is(target error) bool {
	return target == ErrMalformedPacket
}

// PersistenceError wraps an error from the local key-value store.
type PersistenceError struct {
	// Op names the failed store operation.
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// TransportError wraps an error from the external storage substrate.
type TransportError struct {
	// Op names the failed operation ("publish", "fetch").
	Op string
	// Key is the substrate key involved.
	Key string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure in %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// wrapPacketError converts ikp and primitive errors to public errors so that
// errors.Is() checks work with the package sentinels.
func wrapPacketError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ikp.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, ikp.ErrNotRecipient):
		return fmt.Errorf("%w: %w", ErrNotFound, ErrNotRecipient)
	case errors.Is(err, ikp.ErrSignatureInvalid),
		errors.Is(err, crypto.ErrUnwrapFailed),
		errors.Is(err, crypto.ErrDecryptionFailed),
		errors.Is(err, crypto.ErrDecapsulationFailed):
		return &CryptoError{Op: op, Err: err}
	case errors.Is(err, ikp.ErrBadMagic),
		errors.Is(err, ikp.ErrTruncated),
		errors.Is(err, ikp.ErrNoMembers),
		errors.Is(err, ikp.ErrTooManyMembers),
		errors.Is(err, ikp.ErrBadSignatureBlock):
		return &PacketError{Err: err}
	}
	return err
}
