package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/johnrirwin/streamforge/internal/models"
)

// VideoStore reads feed candidate videos from Postgres.
type VideoStore struct {
	db *DB
}

func NewVideoStore(db *DB) *VideoStore {
	return &VideoStore{db: db}
}

// SupportsCompositeSort reports that Postgres can evaluate raw composite
// sort expressions, so every ordering variant is usable.
func (s *VideoStore) SupportsCompositeSort() bool {
	return true
}

// QueryVideos runs one candidate-tier query. Feed eligibility (public,
// available, owner identity present) is always enforced here so no tier
// can accidentally widen past it.
func (s *VideoStore) QueryVideos(ctx context.Context, q models.VideoQuery) ([]models.Video, error) {
	var (
		conds []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds,
		"visibility = "+arg(string(models.VisibilityPublic)),
		"status = "+arg(string(models.VideoStatusAvailable)),
		// Rows with neither a live owner reference nor a denormalized
		// snapshot are broken joins, never candidates.
		"(owner_id IS NOT NULL OR owner_name <> '')",
		"sport = "+arg(q.Sport),
	)

	if len(q.OwnersIn) > 0 {
		conds = append(conds, "owner_id = ANY("+arg(pq.Array(q.OwnersIn))+")")
	}
	if len(q.OwnersNotIn) > 0 {
		conds = append(conds, "(owner_id IS NULL OR owner_id <> ALL("+arg(pq.Array(q.OwnersNotIn))+"))")
	}
	if len(q.IDsIn) > 0 {
		conds = append(conds, "id = ANY("+arg(pq.Array(q.IDsIn))+")")
	}
	if len(q.IDsNotIn) > 0 {
		conds = append(conds, "id <> ALL("+arg(pq.Array(q.IDsNotIn))+")")
	}

	query := `
		SELECT id, COALESCE(owner_id::text, ''), owner_name, title, thumb_url, stream_url,
		       visibility, status, sport,
		       trending_score, engagement_score, views, likes, comments,
		       created_at
		FROM videos
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY ` + orderClause(q.Sort)

	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// Insert stores a video row. Used by upload pipelines and seed tooling;
// the feed engine itself only reads.
func (s *VideoStore) Insert(ctx context.Context, v *models.Video) error {
	var ownerID sql.NullString
	if v.OwnerID != "" {
		ownerID = sql.NullString{String: v.OwnerID, Valid: true}
	}

	return s.db.QueryRowContext(ctx, `
		INSERT INTO videos (
			owner_id, owner_name, title, thumb_url, stream_url,
			visibility, status, sport,
			trending_score, engagement_score, views, likes, comments,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		RETURNING id`,
		ownerID,
		v.OwnerName,
		v.Title,
		v.ThumbURL,
		v.StreamURL,
		string(v.Visibility),
		string(v.Status),
		v.Sport,
		v.TrendingScore,
		v.EngagementScore,
		v.Views,
		v.Likes,
		v.Comments,
		v.CreatedAt,
	).Scan(&v.ID)
}

func orderClause(sort models.SortOrder) string {
	switch sort {
	case models.SortRecencyTrending:
		return "created_at DESC, trending_score DESC"
	case models.SortTrendingRecency:
		return "trending_score DESC, created_at DESC"
	case models.SortEngagementWeighted:
		return "(engagement_score + likes * 0.1 + comments * 0.05) DESC, created_at DESC"
	case models.SortRecencyLikes:
		return "created_at DESC, likes DESC"
	default:
		return "trending_score DESC, created_at DESC"
	}
}

func scanVideo(rows *sql.Rows) (models.Video, error) {
	var (
		v          models.Video
		visibility string
		status     string
	)
	if err := rows.Scan(
		&v.ID,
		&v.OwnerID,
		&v.OwnerName,
		&v.Title,
		&v.ThumbURL,
		&v.StreamURL,
		&visibility,
		&status,
		&v.Sport,
		&v.TrendingScore,
		&v.EngagementScore,
		&v.Views,
		&v.Likes,
		&v.Comments,
		&v.CreatedAt,
	); err != nil {
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	v.Visibility = models.Visibility(visibility)
	v.Status = models.VideoStatus(status)
	return v, nil
}
