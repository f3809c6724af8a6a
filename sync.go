package groupkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pqmsg/groupkey-go/internal/crypto"
	"github.com/pqmsg/groupkey-go/internal/keybox"
)

// ExportEntry is one group key in plaintext-equivalent form, held in memory
// only while moving keys between a user's devices. Wipe every entry after
// use; entries are never persisted or transmitted unsealed.
type ExportEntry struct {
	// GroupID is the group's 36-byte UUID string.
	GroupID string
	// Version is the key version.
	Version uint32
	// Key is the raw 32-byte group key.
	Key []byte
	// CreatedAt and ExpiresAt carry the record's lifetime across devices.
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Wipe zeroizes the entry's key material.
func (e *ExportEntry) Wipe() {
	crypto.Wipe(e.Key)
}

// WipeExportEntries zeroizes every entry's key material.
func WipeExportEntries(entries []ExportEntry) {
	for i := range entries {
		entries[i].Wipe()
	}
}

// exportEntrySize is the encoded size of one entry in the sync payload:
// group_id(36) || version(4) || key(32) || created_at(8) || expires_at(8).
const exportEntrySize = 36 + 4 + crypto.GEKSize + 8 + 8

// envelopeMinSize is the smallest valid sync envelope:
// kem_ct || nonce || aead(count(4) || tag).
const envelopeMinSize = crypto.MLKEMCiphertextSize + crypto.AESNonceSize + 4 + crypto.AESTagSize

// ExportAll opens every non-expired local record and returns the plaintext
// entries. The caller must re-seal them for transport immediately and wipe
// them afterwards. Records that can no longer be opened are unavailable keys
// and are excluded with a warning.
func (r *Ring) ExportAll(ctx context.Context) ([]ExportEntry, error) {
	recs, err := r.kv.Scan(ctx, "")
	if err != nil {
		return nil, &PersistenceError{Op: "scan", Err: err}
	}

	now := r.now()
	entries := make([]ExportEntry, 0, len(recs))
	for _, rec := range recs {
		if rec.Expired(now) {
			continue
		}

		key, err := keybox.Open(rec.Blob, r.identity.KEMSecretKey)
		if err != nil {
			r.log.Warn().
				Str("group", rec.GroupID).
				Uint32("version", rec.Version).
				Msg("stored key unavailable, excluded from export")
			continue
		}

		entries = append(entries, ExportEntry{
			GroupID:   rec.GroupID,
			Version:   rec.Version,
			Key:       key,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	return entries, nil
}

// PublishExport seals the export batch into the device-sync envelope for the
// local identity and publishes it to the storage substrate. The entries are
// not wiped; that remains the caller's responsibility.
func (r *Ring) PublishExport(ctx context.Context, entries []ExportEntry) error {
	if r.substrate == nil {
		return fmt.Errorf("%w: publish requires a substrate", ErrInvalidArgument)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: nothing to publish", ErrInvalidArgument)
	}

	envelope, err := r.sealSyncEnvelope(entries)
	if err != nil {
		return err
	}

	key := syncKey(r.identity.Fingerprint)
	if err := r.substrate.Publish(ctx, key, envelope, r.syncTTL); err != nil {
		return &TransportError{Op: "publish", Key: key, Err: err}
	}

	r.log.Debug().Int("entries", len(entries)).Msg("device-sync envelope published")
	return nil
}

// FetchAndImport fetches the identity's device-sync envelope, opens it, and
// merges the entries into the local store. The merge is idempotent: an entry
// whose (group, version) already exists locally is skipped, never
// overwritten, since a record's content for a given version is immutable by
// construction. A persistence failure on one entry skips that entry and
// continues with the rest. Returns the number of newly imported records.
func (r *Ring) FetchAndImport(ctx context.Context) (int, error) {
	if r.substrate == nil {
		return 0, fmt.Errorf("%w: fetch requires a substrate", ErrInvalidArgument)
	}

	key := syncKey(r.identity.Fingerprint)
	envelope, err := r.substrate.Fetch(ctx, key)
	if err != nil {
		return 0, &TransportError{Op: "fetch", Key: key, Err: err}
	}
	if envelope == nil {
		return 0, nil
	}

	entries, err := r.openSyncEnvelope(envelope)
	if err != nil {
		return 0, err
	}
	defer WipeExportEntries(entries)

	imported := 0
	for i := range entries {
		e := &entries[i]
		if err := validateGroupID(e.GroupID); err != nil {
			r.log.Warn().Uint32("version", e.Version).Msg("sync entry with bad group id skipped")
			continue
		}

		existing, err := r.kv.Get(ctx, e.GroupID, e.Version)
		if err != nil {
			r.log.Warn().
				Str("group", e.GroupID).
				Uint32("version", e.Version).
				Err(err).
				Msg("sync entry lookup failed, skipped")
			continue
		}
		if existing != nil {
			continue
		}

		// Re-seal under this device's own key.
		blob, err := keybox.Seal(e.Key, r.identity.KEMPublicKey)
		if err != nil {
			return imported, &CryptoError{Op: "seal", Err: err}
		}

		rec := &Record{
			GroupID:   e.GroupID,
			Version:   e.Version,
			Blob:      blob,
			CreatedAt: e.CreatedAt,
			ExpiresAt: e.ExpiresAt,
		}
		if err := r.kv.Put(ctx, rec); err != nil {
			r.log.Warn().
				Str("group", e.GroupID).
				Uint32("version", e.Version).
				Err(err).
				Msg("sync entry store failed, skipped")
			continue
		}
		imported++
	}

	r.log.Debug().Int("imported", imported).Int("received", len(entries)).Msg("device-sync import complete")
	return imported, nil
}

// AutoSync imports remote keys first, then exports and publishes the merged
// local view, so a newly provisioned device both receives existing keys and
// contributes any it alone produced. Returns the number of imported records.
func (r *Ring) AutoSync(ctx context.Context) (int, error) {
	imported, err := r.FetchAndImport(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := r.ExportAll(ctx)
	if err != nil {
		return imported, err
	}
	defer WipeExportEntries(entries)

	if len(entries) == 0 {
		return imported, nil
	}

	if err := r.PublishExport(ctx, entries); err != nil {
		return imported, err
	}
	return imported, nil
}

// sealSyncEnvelope encodes the entries and seals them for the local
// identity's own device-sync channel: a fresh KEM encapsulation, an
// HKDF-SHA-512 envelope key bound to the owner fingerprint, and AES-256-GCM.
//
// Envelope layout: kem_ct(1568) || nonce(12) || ciphertext || tag(16).
func (r *Ring) sealSyncEnvelope(entries []ExportEntry) ([]byte, error) {
	payload := make([]byte, 0, 4+len(entries)*exportEntrySize)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(entries)))
	for i := range entries {
		e := &entries[i]
		if len(e.GroupID) != 36 {
			crypto.Wipe(payload)
			return nil, fmt.Errorf("%w: entry group id must be 36 bytes", ErrInvalidArgument)
		}
		if len(e.Key) != crypto.GEKSize {
			crypto.Wipe(payload)
			return nil, fmt.Errorf("%w: entry key must be %d bytes", ErrInvalidArgument, crypto.GEKSize)
		}
		payload = append(payload, e.GroupID...)
		payload = binary.BigEndian.AppendUint32(payload, e.Version)
		payload = append(payload, e.Key...)
		payload = binary.BigEndian.AppendUint64(payload, uint64(e.CreatedAt.Unix()))
		payload = binary.BigEndian.AppendUint64(payload, uint64(e.ExpiresAt.Unix()))
	}
	defer crypto.Wipe(payload)

	kemCT, sharedSecret, err := crypto.Encapsulate(r.identity.KEMPublicKey)
	if err != nil {
		return nil, &CryptoError{Op: "encapsulate", Err: err}
	}
	defer crypto.Wipe(sharedSecret)

	envKey, err := crypto.DeriveEnvelopeKey(sharedSecret, r.identity.Fingerprint, kemCT)
	if err != nil {
		return nil, &CryptoError{Op: "derive", Err: err}
	}
	defer crypto.Wipe(envKey)

	nonce, err := crypto.RandomNonce()
	if err != nil {
		return nil, &CryptoError{Op: "nonce", Err: err}
	}

	sealed, err := crypto.EncryptAESGCM(envKey, nonce, r.identity.Fingerprint, payload)
	if err != nil {
		return nil, &CryptoError{Op: "encrypt", Err: err}
	}

	envelope := make([]byte, 0, len(kemCT)+len(nonce)+len(sealed))
	envelope = append(envelope, kemCT...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, sealed...)
	return envelope, nil
}

// openSyncEnvelope reverses sealSyncEnvelope and decodes the entries. The
// returned entries hold raw key material; the caller must wipe them.
func (r *Ring) openSyncEnvelope(envelope []byte) ([]ExportEntry, error) {
	if len(envelope) < envelopeMinSize {
		return nil, &PacketError{Err: fmt.Errorf("sync envelope too short: %d bytes", len(envelope))}
	}

	kemCT := envelope[:crypto.MLKEMCiphertextSize]
	nonce := envelope[crypto.MLKEMCiphertextSize : crypto.MLKEMCiphertextSize+crypto.AESNonceSize]
	sealed := envelope[crypto.MLKEMCiphertextSize+crypto.AESNonceSize:]

	sharedSecret, err := crypto.Decapsulate(r.identity.KEMSecretKey, kemCT)
	if err != nil {
		return nil, &CryptoError{Op: "decapsulate", Err: err}
	}
	defer crypto.Wipe(sharedSecret)

	envKey, err := crypto.DeriveEnvelopeKey(sharedSecret, r.identity.Fingerprint, kemCT)
	if err != nil {
		return nil, &CryptoError{Op: "derive", Err: err}
	}
	defer crypto.Wipe(envKey)

	payload, err := crypto.DecryptAESGCM(envKey, nonce, r.identity.Fingerprint, sealed)
	if err != nil {
		return nil, &CryptoError{Op: "decrypt", Err: err}
	}
	defer crypto.Wipe(payload)

	if len(payload) < 4 {
		return nil, &PacketError{Err: fmt.Errorf("sync payload too short")}
	}
	count := binary.BigEndian.Uint32(payload[:4])
	if int(count)*exportEntrySize != len(payload)-4 {
		return nil, &PacketError{Err: fmt.Errorf("sync payload length mismatch for %d entries", count)}
	}

	entries := make([]ExportEntry, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		gid := string(payload[off : off+36])
		off += 36
		version := binary.BigEndian.Uint32(payload[off : off+4])
		off += 4
		key := make([]byte, crypto.GEKSize)
		copy(key, payload[off:off+crypto.GEKSize])
		off += crypto.GEKSize
		created := int64(binary.BigEndian.Uint64(payload[off : off+8]))
		off += 8
		expires := int64(binary.BigEndian.Uint64(payload[off : off+8]))
		off += 8

		entries = append(entries, ExportEntry{
			GroupID:   gid,
			Version:   version,
			Key:       key,
			CreatedAt: time.Unix(created, 0),
			ExpiresAt: time.Unix(expires, 0),
		})
	}
	return entries, nil
}
