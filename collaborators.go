package groupkey

import (
	"context"
	"time"
)

// Record is one stored version of one group's encryption key. The key
// material inside Blob is always sealed under the local device's KEM public
// key; it is never persisted in the clear.
type Record struct {
	// GroupID is the group's 36-byte UUID string.
	GroupID string
	// Version is the monotonically increasing key version, unique per group.
	Version uint32
	// Blob is the sealed key (see internal/keybox), 1628 bytes.
	Blob []byte
	// CreatedAt is when this version was minted.
	CreatedAt time.Time
	// ExpiresAt is when this version stops being usable.
	ExpiresAt time.Time
}

// Expired reports whether the record is past its TTL at the given instant.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// KV is the local encrypted key-value store used for persistence. The store
// provides simple per-key read/write atomicity, not cross-call transactions;
// callers serialize concurrent operations on the same (group, version).
type KV interface {
	// Put upserts a record keyed by (GroupID, Version).
	Put(ctx context.Context, rec *Record) error
	// Get returns the record for (groupID, version), or (nil, nil) when no
	// such record exists.
	Get(ctx context.Context, groupID string, version uint32) (*Record, error)
	// Latest returns the record with the greatest version for the group
	// regardless of expiry, or (nil, nil) when the group has no records.
	Latest(ctx context.Context, groupID string) (*Record, error)
	// Scan returns all records for the group, or for every group when
	// groupID is empty.
	Scan(ctx context.Context, groupID string) ([]*Record, error)
	// DeleteExpired removes every record with ExpiresAt at or before now
	// and returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Substrate is the external DHT-like storage used to publish and fetch
// packets between devices and group members.
type Substrate interface {
	// Publish stores value under key with a bounded TTL, replacing any
	// previous value.
	Publish(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Fetch returns the value stored under key, or (nil, nil) when the key
	// is absent.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// MemberKeys holds a member's public keys as resolved by the keyserver.
type MemberKeys struct {
	// KEMPublicKey is the member's ML-KEM-1024 public key (1568 bytes).
	KEMPublicKey []byte
	// SigningPublicKey is the member's ML-DSA-87 public key (2592 bytes).
	SigningPublicKey []byte
}

// Keyserver resolves a member's identity fingerprint to their public keys.
type Keyserver interface {
	// Lookup returns the keys for fingerprint, or (nil, nil) when the
	// identity is unknown.
	Lookup(ctx context.Context, fingerprint []byte) (*MemberKeys, error)
}

// Directory is the group-membership directory.
type Directory interface {
	// ListMembers returns the fingerprints of the group's current members.
	ListMembers(ctx context.Context, groupID string) ([][]byte, error)
	// OwnerOf returns the fingerprint of the group's owner.
	OwnerOf(ctx context.Context, groupID string) ([]byte, error)
}
