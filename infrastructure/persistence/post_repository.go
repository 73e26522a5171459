package persistence

import (
	"context"
	"database/sql"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

type PostRepository struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) repository.IPost { return &PostRepository{db} }

const postColumns = `id, organization_id, channel_id, caption, type, status, scheduled_at, published_at, external_post_id, meta, created_at, updated_at`

func (r *PostRepository) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	q := `INSERT INTO posts (organization_id, channel_id, caption, type, status, scheduled_at, published_at, external_post_id, meta, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
		  RETURNING ` + postColumns
	row := r.db.QueryRowContext(ctx, q, post.OrganizationID, post.ChannelID, post.Caption, post.Type,
		string(post.Status), post.ScheduledAt, post.PublishedAt, post.ExternalPostID, nullableRaw(post.Meta))
	created, err := scanPost(row)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("create post failed")
		return nil, err
	}
	return created, nil
}

func (r *PostRepository) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	return scanPost(row)
}

func (r *PostRepository) GetRecentPublished(ctx context.Context, organizationID string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE organization_id=$1 AND status=$2 ORDER BY published_at DESC LIMIT $3`,
		organizationID, string(model.PostStatusPublished), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) CreatePostMetric(ctx context.Context, m *model.PostMetric) error {
	capturedAt := m.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_metrics (post_id, captured_at, impressions, reach, likes, comments, shares, engagement) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.PostID, capturedAt, m.Impressions, m.Reach, m.Likes, m.Comments, m.Shares, m.Engagement)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"post_id": m.PostID,
		}).Error("create post metric failed")
	}
	return err
}

func (r *PostRepository) GetPostMetrics(ctx context.Context, postID int64, limit int) ([]*model.PostMetric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, captured_at, impressions, reach, likes, comments, shares, engagement FROM post_metrics WHERE post_id=$1 ORDER BY captured_at DESC LIMIT $2`,
		postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var metrics []*model.PostMetric
	for rows.Next() {
		m := &model.PostMetric{}
		if err := rows.Scan(&m.ID, &m.PostID, &m.CapturedAt, &m.Impressions, &m.Reach, &m.Likes, &m.Comments, &m.Shares, &m.Engagement); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func nullableRaw(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	var scheduledAt, publishedAt sql.NullTime
	var externalID sql.NullString
	var meta []byte
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.ChannelID, &p.Caption, &p.Type, &p.Status,
		&scheduledAt, &publishedAt, &externalID, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		p.ScheduledAt = &scheduledAt.Time
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	if externalID.Valid {
		v := externalID.String
		p.ExternalPostID = &v
	}
	if len(meta) > 0 {
		p.Meta = meta
	}
	return p, nil
}
