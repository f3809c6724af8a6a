package groupkey

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultKeyTTL is the lifetime of a newly stored group key version.
	DefaultKeyTTL = 30 * 24 * time.Hour

	// DefaultPublishTTL bounds how long published key packets and version
	// pointers live on the storage substrate.
	DefaultPublishTTL = 7 * 24 * time.Hour

	// DefaultSyncTTL bounds how long a published device-sync envelope lives
	// on the storage substrate.
	DefaultSyncTTL = 7 * 24 * time.Hour
)

// ringConfig holds configuration for a Ring.
type ringConfig struct {
	substrate  Substrate
	keyserver  Keyserver
	directory  Directory
	clock      func() time.Time
	keyTTL     time.Duration
	publishTTL time.Duration
	syncTTL    time.Duration
	logger     zerolog.Logger
}

// Option configures a Ring.
type Option func(*ringConfig)

// WithSubstrate sets the external storage substrate used to publish and
// fetch key packets. Required for Rotate and the sync operations.
func WithSubstrate(s Substrate) Option {
	return func(c *ringConfig) {
		c.substrate = s
	}
}

// WithKeyserver sets the public-key directory used to resolve member
// fingerprints. Required for Rotate.
func WithKeyserver(k Keyserver) Option {
	return func(c *ringConfig) {
		c.keyserver = k
	}
}

// WithDirectory sets the group-membership directory. Required for Rotate.
func WithDirectory(d Directory) Option {
	return func(c *ringConfig) {
		c.directory = d
	}
}

// WithClock sets the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *ringConfig) {
		c.clock = clock
	}
}

// WithKeyTTL sets the lifetime of newly stored key versions.
// Default: 30 days.
func WithKeyTTL(ttl time.Duration) Option {
	return func(c *ringConfig) {
		c.keyTTL = ttl
	}
}

// WithPublishTTL sets the substrate TTL for published key packets and
// version pointers. Default: 7 days.
func WithPublishTTL(ttl time.Duration) Option {
	return func(c *ringConfig) {
		c.publishTTL = ttl
	}
}

// WithSyncTTL sets the substrate TTL for published device-sync envelopes.
// Default: 7 days.
func WithSyncTTL(ttl time.Duration) Option {
	return func(c *ringConfig) {
		c.syncTTL = ttl
	}
}

// WithLogger sets the logger used for audit and diagnostic events.
// Defaults to a no-op logger. No secret material is ever logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *ringConfig) {
		c.logger = logger
	}
}
