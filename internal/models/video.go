package models

import (
	"fmt"
	"time"
)

// Visibility controls who may see a video.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// VideoStatus is the processing lifecycle state of a video.
type VideoStatus string

const (
	VideoStatusPending   VideoStatus = "pending"
	VideoStatusAvailable VideoStatus = "available"
	VideoStatusBlocked   VideoStatus = "blocked"
)

// Video is a single piece of content as seen by the feed engine.
// Score fields are computed elsewhere (engagement pipelines) and are
// opaque ranking signals here: higher is better.
type Video struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"ownerId"`
	OwnerName  string      `json:"ownerName,omitempty"` // denormalized snapshot, may outlive the owner row
	Title      string      `json:"title"`
	ThumbURL   string      `json:"thumbUrl,omitempty"`
	StreamURL  string      `json:"streamUrl,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	Visibility Visibility  `json:"visibility"`
	Status     VideoStatus `json:"status"`
	Sport      bool        `json:"sport"`

	TrendingScore   float64 `json:"trendingScore"`
	EngagementScore float64 `json:"engagementScore"`
	Views           int64   `json:"views"`
	Likes           int64   `json:"likes"`
	Comments        int64   `json:"comments"`
}

// FeedEligible reports whether a video may appear in any feed at all.
// A video with neither a live owner reference nor a denormalized owner
// snapshot is the product of a broken join and is never served.
func (v *Video) FeedEligible() bool {
	if v.OwnerID == "" && v.OwnerName == "" {
		return false
	}
	return v.Visibility == VisibilityPublic && v.Status == VideoStatusAvailable
}

// Age returns how old the video is relative to now.
func (v *Video) Age(now time.Time) time.Duration {
	return now.Sub(v.CreatedAt)
}

// FeedType selects which content pool a feed request draws from.
type FeedType string

const (
	// FeedMixed is the general pool, excluding sport-flagged content.
	FeedMixed FeedType = "mixed"
	// FeedFollowing restricts the general pool to followed owners.
	FeedFollowing FeedType = "following"
	// FeedSport is the sport/shopping-flagged pool only.
	FeedSport FeedType = "sport"
)

// ParseFeedType validates a client-supplied feed type string.
func ParseFeedType(s string) (FeedType, error) {
	switch FeedType(s) {
	case FeedMixed, FeedFollowing, FeedSport:
		return FeedType(s), nil
	case "":
		return FeedMixed, nil
	}
	return "", fmt.Errorf("unknown feed type %q", s)
}

// Ad is an externally ranked ad placement merged into feed responses.
// The feed engine treats it as opaque.
type Ad struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl"`
	Position int    `json:"position"`
}

// FeedPage is one feed response: ordered videos plus ad placements.
// NoContent marks the valid-but-empty state ("nothing to show") so
// callers can distinguish it from a transport failure.
type FeedPage struct {
	Videos    []Video `json:"videos"`
	Ads       []Ad    `json:"ads"`
	NoContent bool    `json:"noContent,omitempty"`
}

// VideoIDs extracts the ordered ID list from a batch.
func VideoIDs(videos []Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}
