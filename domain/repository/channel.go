package repository

import (
	"context"

	"social-hub/domain/model"
)

// ChannelUpsert carries the fields refreshed on every successful callback.
type ChannelUpsert struct {
	OrganizationID string
	Platform       model.Platform
	ExternalID     string
	DisplayName    string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *int64 // epoch seconds; nil when the provider reports none
	Meta           model.PlatformMeta
}

// IChannel persists connected social accounts. UpsertChannel must be a single
// atomic statement keyed by (organization_id, platform, external_id).
type IChannel interface {
	UpsertChannel(ctx context.Context, up ChannelUpsert) (*model.Channel, error)
	GetChannel(ctx context.Context, id int64) (*model.Channel, error)
	GetChannelsByOrganization(ctx context.Context, organizationID string) ([]*model.Channel, error)
	GetActiveChannels(ctx context.Context) ([]*model.Channel, error)
	DeactivateChannel(ctx context.Context, id int64) error
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *int64) error
}
