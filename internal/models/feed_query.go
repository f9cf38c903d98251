package models

// SortOrder identifies one of the composite candidate orderings. The
// concrete comparison logic lives with each store; a SortOrder is just
// the selected variant.
type SortOrder int

const (
	// SortTrending is the plain trending-descending fallback ordering.
	SortTrending SortOrder = iota
	// SortRecencyTrending orders by creation time, then trending score.
	SortRecencyTrending
	// SortTrendingRecency orders by trending score, then creation time.
	SortTrendingRecency
	// SortEngagementWeighted orders by a weighted engagement expression.
	// Requires a backend that supports composite sort expressions.
	SortEngagementWeighted
	// SortRecencyLikes orders by creation time, then like count.
	SortRecencyLikes
)

// Composite reports whether the ordering needs raw sort expression
// support from the backing store.
func (o SortOrder) Composite() bool {
	return o == SortEngagementWeighted
}

// Less reports whether a sorts before b under this ordering. Every
// variant breaks remaining ties by recency. Store implementations
// without native sort support can use this directly.
func (o SortOrder) Less(a, b *Video) bool {
	switch o {
	case SortRecencyTrending:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.TrendingScore > b.TrendingScore
	case SortTrendingRecency:
		if a.TrendingScore != b.TrendingScore {
			return a.TrendingScore > b.TrendingScore
		}
		return a.CreatedAt.After(b.CreatedAt)
	case SortEngagementWeighted:
		wa := a.EngagementScore + float64(a.Likes)*0.1 + float64(a.Comments)*0.05
		wb := b.EngagementScore + float64(b.Likes)*0.1 + float64(b.Comments)*0.05
		if wa != wb {
			return wa > wb
		}
		return a.CreatedAt.After(b.CreatedAt)
	case SortRecencyLikes:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Likes > b.Likes
	default:
		if a.TrendingScore != b.TrendingScore {
			return a.TrendingScore > b.TrendingScore
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
}

// VideoQuery describes one candidate-tier query against the content store.
// Nil slice fields mean "unrestricted"; empty non-nil slices are treated
// the same way so callers don't have to special-case them.
type VideoQuery struct {
	// Sport selects the content pool: sport-flagged vs general.
	Sport bool
	// OwnersIn restricts results to these owners (following feed).
	OwnersIn []string
	// OwnersNotIn excludes these owners (blocked users).
	OwnersNotIn []string
	// IDsIn restricts results to these video IDs (watched fallback tier).
	IDsIn []string
	// IDsNotIn excludes these video IDs (watched set, caller exclusions).
	IDsNotIn []string
	// Limit caps the number of rows returned.
	Limit int
	// Sort selects the ordering variant.
	Sort SortOrder
}
