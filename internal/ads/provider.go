// Package ads supplies externally ranked ad placements merged into feed
// responses. Ranking happens in a separate system; the feed engine
// treats placements as opaque.
package ads

import (
	"context"

	"github.com/johnrirwin/streamforge/internal/models"
)

// Provider returns the ad placements for one feed response.
type Provider interface {
	Placements(ctx context.Context, userID string, feedType models.FeedType, limit int) ([]models.Ad, error)
}

// StaticProvider serves a fixed placement list; with no placements it
// acts as a no-op provider.
type StaticProvider struct {
	placements []models.Ad
}

// NewStatic creates a provider serving the given placements.
func NewStatic(placements []models.Ad) *StaticProvider {
	return &StaticProvider{placements: placements}
}

func (p *StaticProvider) Placements(_ context.Context, _ string, _ models.FeedType, limit int) ([]models.Ad, error) {
	if limit > 0 && len(p.placements) > limit {
		return p.placements[:limit], nil
	}
	return p.placements, nil
}

var _ Provider = (*StaticProvider)(nil)
