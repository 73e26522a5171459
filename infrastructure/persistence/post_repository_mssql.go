package persistence

import (
	"context"
	"database/sql"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// PostRepositoryMSSQL is the SQL Server implementation of IPost.
type PostRepositoryMSSQL struct{ db *sql.DB }

func NewPostRepositoryMSSQL(db *sql.DB) repository.IPost { return &PostRepositoryMSSQL{db} }

const postColumnsMSSQL = `id, organization_id, channel_id, caption, type, status, scheduled_at, published_at, external_post_id, meta, created_at, updated_at`

func (r *PostRepositoryMSSQL) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	q := `INSERT INTO dbo.[posts] (organization_id, channel_id, caption, type, status, scheduled_at, published_at, external_post_id, meta, created_at, updated_at)
		  OUTPUT inserted.id, inserted.organization_id, inserted.channel_id, inserted.caption, inserted.type, inserted.status, inserted.scheduled_at, inserted.published_at, inserted.external_post_id, inserted.meta, inserted.created_at, inserted.updated_at
		  VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, SYSDATETIME(), SYSDATETIME())`
	row := r.db.QueryRowContext(ctx, q, post.OrganizationID, post.ChannelID, post.Caption, post.Type,
		string(post.Status), post.ScheduledAt, post.PublishedAt, post.ExternalPostID, nullableRaw(post.Meta))
	created, err := scanPost(row)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("mssql: create post failed")
		return nil, err
	}
	return created, nil
}

func (r *PostRepositoryMSSQL) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumnsMSSQL+` FROM dbo.[posts] WHERE id=@p1`, id)
	return scanPost(row)
}

func (r *PostRepositoryMSSQL) GetRecentPublished(ctx context.Context, organizationID string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT TOP (@p3) `+postColumnsMSSQL+` FROM dbo.[posts] WHERE organization_id=@p1 AND status=@p2 ORDER BY published_at DESC`,
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

func (r *PostRepositoryMSSQL) CreatePostMetric(ctx context.Context, m *model.PostMetric) error {
	capturedAt := m.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dbo.[post_metrics] (post_id, captured_at, impressions, reach, likes, comments, shares, engagement) VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8)`,
		m.PostID, capturedAt, m.Impressions, m.Reach, m.Likes, m.Comments, m.Shares, m.Engagement)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"post_id": m.PostID,
		}).Error("mssql: create post metric failed")
	}
	return err
}

func (r *PostRepositoryMSSQL) GetPostMetrics(ctx context.Context, postID int64, limit int) ([]*model.PostMetric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT TOP (@p2) id, post_id, captured_at, impressions, reach, likes, comments, shares, engagement FROM dbo.[post_metrics] WHERE post_id=@p1 ORDER BY captured_at DESC`,
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
