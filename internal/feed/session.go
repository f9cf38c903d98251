package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/johnrirwin/streamforge/internal/cache"
)

const (
	// sessionTokenTTL controls how often a user's feed ordering bucket
	// rotates. Re-entering the app after expiry yields a fresh feed.
	sessionTokenTTL = 3 * time.Minute
	sessionTokenLen = 8
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SessionIdentity derives the short-lived per-user token that salts
// feed cache keys. Tokens diversify cache buckets across app opens;
// they are not security credentials.
type SessionIdentity struct {
	store cache.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSessionIdentity creates a session identity source.
func NewSessionIdentity(store cache.Store) *SessionIdentity {
	return &SessionIdentity{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSessionIdentityWithRand is exposed for deterministic tests.
func NewSessionIdentityWithRand(store cache.Store, rng *rand.Rand) *SessionIdentity {
	return &SessionIdentity{store: store, rng: rng}
}

// SessionToken returns the user's current session token, generating and
// storing a new one when none exists or the previous expired.
func (s *SessionIdentity) SessionToken(ctx context.Context, userID string) (string, error) {
	key := sessionKey(userID)

	if data, ok, err := s.store.Get(ctx, key); err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	} else if ok && len(data) > 0 {
		return string(data), nil
	}

	token := s.generateToken()
	if err := s.store.Set(ctx, key, []byte(token), sessionTokenTTL); err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}
	return token, nil
}

// Reset deletes the user's session token and every cached feed batch
// under any token, forcing full regeneration on the next request.
func (s *SessionIdentity) Reset(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	if err := s.store.DeletePattern(ctx, userBatchPattern(userID)); err != nil {
		return fmt.Errorf("delete cached batches: %w", err)
	}
	return nil
}

func (s *SessionIdentity) generateToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, sessionTokenLen)
	for i := range buf {
		buf[i] = tokenAlphabet[s.rng.Intn(len(tokenAlphabet))]
	}
	return string(buf)
}
