package repository

import (
	"context"

	"social-hub/domain/model"
)

// IPost persists published content and its append-only metric samples.
type IPost interface {
	CreatePost(ctx context.Context, post *model.Post) (*model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	GetRecentPublished(ctx context.Context, organizationID string, limit int) ([]*model.Post, error)
	CreatePostMetric(ctx context.Context, metric *model.PostMetric) error
	GetPostMetrics(ctx context.Context, postID int64, limit int) ([]*model.PostMetric, error)
}
