// Package badgerkv persists sealed group-key records in an embedded Badger
// database. Values never contain key material in the clear; records arrive
// already sealed.
package badgerkv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	groupkey "github.com/pqmsg/groupkey-go"
)

// keyPrefix namespaces group-key records inside the database.
const keyPrefix = "gek:"

// valueHeaderSize is created_at(8) || expires_at(8) before the sealed blob.
const valueHeaderSize = 16

// Store is a groupkey.KV backed by Badger.
type Store struct {
	db *badger.DB
}

var _ groupkey.KV = (*Store)(nil)

// Open opens (or creates) a Badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordKey is keyPrefix || group_id(36) || ":" || version(4 BE). Big-endian
// versions keep keys for one group in version order under iteration.
func recordKey(groupID string, version uint32) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(groupID)+1+4)
	key = append(key, keyPrefix...)
	key = append(key, groupID...)
	key = append(key, ':')
	key = binary.BigEndian.AppendUint32(key, version)
	return key
}

func groupPrefix(groupID string) []byte {
	if groupID == "" {
		return []byte(keyPrefix)
	}
	return []byte(keyPrefix + groupID + ":")
}

func encodeRecord(rec *groupkey.Record) []byte {
	value := make([]byte, 0, valueHeaderSize+len(rec.Blob))
	value = binary.BigEndian.AppendUint64(value, uint64(rec.CreatedAt.Unix()))
	value = binary.BigEndian.AppendUint64(value, uint64(rec.ExpiresAt.Unix()))
	value = append(value, rec.Blob...)
	return value
}

func decodeRecord(key, value []byte) (*groupkey.Record, error) {
	// key = "gek:" || group(36) || ":" || version(4)
	if len(key) != len(keyPrefix)+36+1+4 {
		return nil, fmt.Errorf("malformed record key %q", key)
	}
	if len(value) < valueHeaderSize {
		return nil, fmt.Errorf("record value too short: %d bytes", len(value))
	}

	groupID := string(key[len(keyPrefix) : len(keyPrefix)+36])
	version := binary.BigEndian.Uint32(key[len(key)-4:])
	created := int64(binary.BigEndian.Uint64(value[:8]))
	expires := int64(binary.BigEndian.Uint64(value[8:16]))

	blob := make([]byte, len(value)-valueHeaderSize)
	copy(blob, value[valueHeaderSize:])

	return &groupkey.Record{
		GroupID:   groupID,
		Version:   version,
		Blob:      blob,
		CreatedAt: time.Unix(created, 0),
		ExpiresAt: time.Unix(expires, 0),
	}, nil
}

// Put upserts a record keyed by (GroupID, Version).
func (s *Store) Put(_ context.Context, rec *groupkey.Record) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.GroupID, rec.Version), encodeRecord(rec))
	})
}

// Get returns the record for (groupID, version), or (nil, nil) when absent.
func (s *Store) Get(_ context.Context, groupID string, version uint32) (*groupkey.Record, error) {
	var rec *groupkey.Record
	err := s.db.View(func(txn *badger.Txn) error {
		key := recordKey(groupID, version)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = decodeRecord(key, value)
		return err
	})
	return rec, err
}

// Latest returns the greatest-version record for the group regardless of
// expiry, or (nil, nil) when the group has none. Versions are big-endian in
// the key, so the last key under the group prefix is the latest.
func (s *Store) Latest(_ context.Context, groupID string) (*groupkey.Record, error) {
	var rec *groupkey.Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := groupPrefix(groupID)

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var lastKey []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			lastKey = it.Item().KeyCopy(lastKey)
		}
		if lastKey == nil {
			return nil
		}

		item, err := txn.Get(lastKey)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = decodeRecord(lastKey, value)
		return err
	})
	return rec, err
}

// Scan returns all records for the group, or every record when groupID is
// empty.
func (s *Store) Scan(_ context.Context, groupID string) ([]*groupkey.Record, error) {
	var recs []*groupkey.Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := groupPrefix(groupID)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeRecord(item.Key(), value)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	return recs, err
}

// DeleteExpired removes every record with ExpiresAt at or before now and
// returns the number removed.
func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	cutoff := now.Unix()
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				if len(value) < valueHeaderSize {
					return fmt.Errorf("record value too short: %d bytes", len(value))
				}
				expires := int64(binary.BigEndian.Uint64(value[8:16]))
				if expires <= cutoff {
					expired = append(expired, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
