package database

import (
	"context"
	"fmt"
)

// RelationshipStore persists follow and block relationships in Postgres.
// The feed engine only reads owner ID sets from it.
type RelationshipStore struct {
	db *DB
}

func NewRelationshipStore(db *DB) *RelationshipStore {
	return &RelationshipStore{db: db}
}

// FollowedOwners returns the IDs of every user the given user follows.
func (s *RelationshipStore) FollowedOwners(ctx context.Context, userID string) ([]string, error) {
	return s.queryIDs(ctx,
		`SELECT followed_id FROM follows WHERE follower_id = $1`, userID)
}

// BlockedOwners returns the IDs of every user the given user has blocked.
func (s *RelationshipStore) BlockedOwners(ctx context.Context, userID string) ([]string, error) {
	return s.queryIDs(ctx,
		`SELECT blocked_id FROM blocks WHERE blocker_id = $1`, userID)
}

// Follow records a follow relationship; duplicates are ignored.
func (s *RelationshipStore) Follow(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// Unfollow removes a follow relationship if present.
func (s *RelationshipStore) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// Block records a block relationship; duplicates are ignored.
func (s *RelationshipStore) Block(ctx context.Context, blockerID, blockedID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// Unblock removes a block relationship if present.
func (s *RelationshipStore) Unblock(ctx context.Context, blockerID, blockedID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *RelationshipStore) queryIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
