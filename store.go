package groupkey

import (
	"context"
	"fmt"

	"github.com/pqmsg/groupkey-go/internal/crypto"
	"github.com/pqmsg/groupkey-go/internal/keybox"
)

// Generate mints a fresh cryptographically random 32-byte group key for the
// given (group, version). It does not persist anything; call Store to do so.
// The caller must wipe the returned key when done with it.
func (r *Ring) Generate(groupID string, version uint32) ([]byte, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, fmt.Errorf("%w: version must be nonzero", ErrInvalidArgument)
	}

	key, err := crypto.RandomKey()
	if err != nil {
		return nil, &CryptoError{Op: "generate", Err: err}
	}
	return key, nil
}

// Store seals key under the local device's KEM public key and upserts a
// record for (groupID, version) with the default key TTL.
func (r *Ring) Store(ctx context.Context, groupID string, version uint32, key []byte) error {
	if err := validateGroupID(groupID); err != nil {
		return err
	}
	if len(key) != crypto.GEKSize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidArgument, crypto.GEKSize, len(key))
	}

	blob, err := keybox.Seal(key, r.identity.KEMPublicKey)
	if err != nil {
		return &CryptoError{Op: "seal", Err: err}
	}

	now := r.now()
	rec := &Record{
		GroupID:   groupID,
		Version:   version,
		Blob:      blob,
		CreatedAt: now,
		ExpiresAt: now.Add(r.keyTTL),
	}

	if err := r.kv.Put(ctx, rec); err != nil {
		return &PersistenceError{Op: "put", Err: err}
	}
	return nil
}

// Load returns the key for an exact (groupID, version). Expired records are
// rejected with ErrExpired. The caller must wipe the returned key.
//
// A record that cannot be opened (decapsulation or tag failure) is reported
// as a CryptoError that also matches ErrNotFound: the key is unavailable and
// callers must treat it like a missing one.
func (r *Ring) Load(ctx context.Context, groupID string, version uint32) ([]byte, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, err
	}

	rec, err := r.kv.Get(ctx, groupID, version)
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: group %s version %d", ErrNotFound, groupID, version)
	}
	if rec.Expired(r.now()) {
		return nil, fmt.Errorf("%w: group %s version %d", ErrExpired, groupID, version)
	}

	key, err := keybox.Open(rec.Blob, r.identity.KEMSecretKey)
	if err != nil {
		return nil, &CryptoError{Op: "open", Unavailable: true, Err: err}
	}
	return key, nil
}

// LoadActive returns the group's active key: the record with the greatest
// version among those not yet expired. The caller must wipe the returned key.
func (r *Ring) LoadActive(ctx context.Context, groupID string) ([]byte, uint32, error) {
	if err := validateGroupID(groupID); err != nil {
		return nil, 0, err
	}

	recs, err := r.kv.Scan(ctx, groupID)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "scan", Err: err}
	}
	if len(recs) == 0 {
		return nil, 0, fmt.Errorf("%w: group %s has no keys", ErrNotFound, groupID)
	}

	now := r.now()
	var active *Record
	for _, rec := range recs {
		if rec.Expired(now) {
			continue
		}
		if active == nil || rec.Version > active.Version {
			active = rec
		}
	}
	if active == nil {
		return nil, 0, fmt.Errorf("%w: group %s has only expired keys", ErrExpired, groupID)
	}

	key, err := keybox.Open(active.Blob, r.identity.KEMSecretKey)
	if err != nil {
		return nil, 0, &CryptoError{Op: "open", Unavailable: true, Err: err}
	}
	return key, active.Version, nil
}

// CurrentVersion returns the greatest stored version for the group,
// independent of expiry. Used to compute the next rotation version. Absence
// of any record is reported as ErrNotFound, distinct from "exists but
// expired".
func (r *Ring) CurrentVersion(ctx context.Context, groupID string) (uint32, error) {
	if err := validateGroupID(groupID); err != nil {
		return 0, err
	}

	rec, err := r.kv.Latest(ctx, groupID)
	if err != nil {
		return 0, &PersistenceError{Op: "latest", Err: err}
	}
	if rec == nil {
		return 0, fmt.Errorf("%w: group %s has no keys", ErrNotFound, groupID)
	}
	return rec.Version, nil
}

// SweepExpired deletes all records past their TTL and returns the count.
// Called at subsystem start-up; safe to call at any time.
func (r *Ring) SweepExpired(ctx context.Context) (int, error) {
	count, err := r.kv.DeleteExpired(ctx, r.now())
	if err != nil {
		return 0, &PersistenceError{Op: "delete expired", Err: err}
	}
	if count > 0 {
		r.log.Debug().Int("count", count).Msg("swept expired group keys")
	}
	return count, nil
}
