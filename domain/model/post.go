package model

import (
	"encoding/json"
	"time"
)

// PostStatus follows the one-directional lifecycle; FAILED is reachable from
// any non-terminal status.
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"
)

// Post is a content item targeted at one Channel. ExternalPostID is only ever
// set from a provider 2xx response that contained an id.
type Post struct {
	ID             int64           `json:"id"`
	OrganizationID string          `json:"organization_id"`
	ChannelID      int64           `json:"channel_id"`
	Caption        string          `json:"caption"`
	Type           string          `json:"type"`
	Status         PostStatus      `json:"status"`
	ScheduledAt    *time.Time      `json:"scheduled_at,omitempty"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	ExternalPostID *string         `json:"external_post_id,omitempty"`
	Meta           json.RawMessage `json:"meta,omitempty"` // raw provider response, kept for audit
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PostMetric is one captured analytics sample for a Post. The series is
// append-only; rows are never mutated once written.
type PostMetric struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	CapturedAt  time.Time `json:"captured_at"`
	Impressions int64     `json:"impressions"`
	Reach       int64     `json:"reach"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Shares      int64     `json:"shares"`
	Engagement  int64     `json:"engagement"`
}

// PublishContent is the caller-supplied content for a publish request.
type PublishContent struct {
	Caption  string `json:"caption"`
	Type     string `json:"type"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}
