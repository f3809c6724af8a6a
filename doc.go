// Package groupkey manages the symmetric group encryption keys (GEKs) of a
// post-quantum end-to-end encrypted messenger.
//
// It creates, stores, rotates, and distributes the per-group key that
// encrypts message content, and synchronizes key material across a user's
// devices. Keys are sealed at rest under the local device's ML-KEM-1024
// keypair, distributed to group members through signed multi-recipient
// Initial Key Packets (see the ikp subpackage), and re-encrypted into a
// dedicated envelope for device-to-device sync.
//
// Basic usage:
//
//	identity, err := groupkey.GenerateIdentity()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ring, err := groupkey.New(identity, kv,
//	    groupkey.WithSubstrate(dht),
//	    groupkey.WithKeyserver(ks),
//	    groupkey.WithDirectory(dir),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Rotate the group key after a membership change.
//	res, err := ring.Rotate(ctx, groupID, groupkey.TriggerMemberRemoved)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// The message path reads the active key.
//	key, version, err := ring.LoadActive(ctx, groupID)
//
// All operations are synchronous: they complete or fail before returning, and
// the package owns no background goroutines. Operations on different groups
// may run concurrently; callers must serialize operations on the same group.
package groupkey
