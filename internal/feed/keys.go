package feed

import (
	"fmt"

	"github.com/johnrirwin/streamforge/internal/models"
)

// Cache key builders. Batch keys carry the session token so each fresh
// app-open lands in a logically distinct cache bucket; session, watched,
// and refresh-flag keys are stable per user.

func batchKey(userID string, feedType models.FeedType, sessionToken string) string {
	return fmt.Sprintf("feed-videos:user:%s:%s:%s", userID, feedType, sessionToken)
}

func userBatchPattern(userID string) string {
	return fmt.Sprintf("feed-videos:user:%s:*", userID)
}

func sessionKey(userID string) string {
	return fmt.Sprintf("feed-session:user:%s", userID)
}

func watchedKey(userID string) string {
	return fmt.Sprintf("feed-watched:user:%s", userID)
}

func refreshFlagKey(userID string, feedType models.FeedType) string {
	return fmt.Sprintf("feed-refresh:user:%s:%s", userID, feedType)
}
