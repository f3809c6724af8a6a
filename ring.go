package groupkey

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ring is the explicit dependency object threaded through every operation:
// the local device's key material, the persistence handle, and the external
// collaborators. Construct one at start-up with New.
type Ring struct {
	identity   Identity
	kv         KV
	substrate  Substrate
	keyserver  Keyserver
	directory  Directory
	clock      func() time.Time
	keyTTL     time.Duration
	publishTTL time.Duration
	syncTTL    time.Duration
	log        zerolog.Logger
}

// New creates a Ring for the given identity, backed by the given local
// key-value store.
func New(identity *Identity, kv KV, opts ...Option) (*Ring, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if kv == nil {
		return nil, fmt.Errorf("%w: nil kv store", ErrInvalidArgument)
	}

	cfg := ringConfig{
		clock:      time.Now,
		keyTTL:     DefaultKeyTTL,
		publishTTL: DefaultPublishTTL,
		syncTTL:    DefaultSyncTTL,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Ring{
		identity:   *identity,
		kv:         kv,
		substrate:  cfg.substrate,
		keyserver:  cfg.keyserver,
		directory:  cfg.directory,
		clock:      cfg.clock,
		keyTTL:     cfg.keyTTL,
		publishTTL: cfg.publishTTL,
		syncTTL:    cfg.syncTTL,
		log:        cfg.logger,
	}, nil
}

// Fingerprint returns the local identity's fingerprint.
func (r *Ring) Fingerprint() []byte {
	fp := make([]byte, len(r.identity.Fingerprint))
	copy(fp, r.identity.Fingerprint)
	return fp
}

func (r *Ring) now() time.Time {
	return r.clock()
}

// validateGroupID checks that id is a canonical 36-byte UUID string.
func validateGroupID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("%w: group id must be a 36-byte UUID string, got %d bytes", ErrInvalidArgument, len(id))
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: group id: %v", ErrInvalidArgument, err)
	}
	return nil
}

// Substrate key namespaces. One IKP per (group, version); one version
// pointer per group; one sync envelope per identity.
func ikpKey(groupID string, version uint32) string {
	return fmt.Sprintf("ikp:%s:%d", groupID, version)
}

func pointerKey(groupID string) string {
	return "gek:current:" + groupID
}

func syncKey(fingerprint []byte) string {
	return "gek:sync:" + hex.EncodeToString(fingerprint)
}
