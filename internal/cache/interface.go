package cache

import (
	"context"
	"time"
)

// Store defines the key-value interface for cache backends.
//
// Beyond plain get/set it exposes the small set of structural operations
// the feed engine relies on: atomic set-if-absent for in-flight markers,
// glob pattern deletes for whole-user invalidation, and an unordered
// string set with pop semantics for bounded watched-history tracking.
type Store interface {
	// Get returns the raw value for key, with found=false on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value only if key is absent. Returns true when the value
	// was written. Must be atomic on the backend.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern ('*' wildcard).
	DeletePattern(ctx context.Context, pattern string) error

	// SetAdd adds members to the unordered set at key.
	SetAdd(ctx context.Context, key string, members ...string) error

	// SetMembers returns all members of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// SetCard returns the cardinality of the set at key.
	SetCard(ctx context.Context, key string) (int64, error)

	// SetPop removes and returns one arbitrary member of the set at key.
	// Returns "" with no error when the set is empty.
	SetPop(ctx context.Context, key string) (string, error)
}
