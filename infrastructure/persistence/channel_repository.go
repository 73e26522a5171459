package persistence

import (
	"context"
	"database/sql"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

type ChannelRepository struct{ db *sql.DB }

func NewChannelRepository(db *sql.DB) repository.IChannel { return &ChannelRepository{db} }

const channelColumns = `id, organization_id, platform, external_id, display_name, access_token, refresh_token, token_expires_at, is_active, meta, created_at, updated_at`

// UpsertChannel inserts or refreshes a channel in one statement keyed by
// (organization_id, platform, external_id). Reconnecting the same account
// never creates a second row; a second identity on the same platform does.
func (r *ChannelRepository) UpsertChannel(ctx context.Context, up repository.ChannelUpsert) (*model.Channel, error) {
	meta, err := model.MarshalMeta(up.Meta)
	if err != nil {
		return nil, err
	}
	var expiresAt *time.Time
	if up.TokenExpiresAt != nil {
		t := time.Unix(*up.TokenExpiresAt, 0).UTC()
		expiresAt = &t
	}
	q := `INSERT INTO channels (organization_id, platform, external_id, display_name, access_token, refresh_token, token_expires_at, is_active, meta, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE,$8,now(),now())
		  ON CONFLICT (organization_id, platform, external_id) DO UPDATE SET
			display_name=EXCLUDED.display_name,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			token_expires_at=EXCLUDED.token_expires_at,
			is_active=TRUE,
			meta=EXCLUDED.meta,
			updated_at=now()
		  RETURNING ` + channelColumns
	row := r.db.QueryRowContext(ctx, q, up.OrganizationID, string(up.Platform), up.ExternalID, up.DisplayName, up.AccessToken, up.RefreshToken, expiresAt, meta)
	ch, err := scanChannel(row)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": up.Platform,
		}).Error("upsert channel failed")
		return nil, err
	}
	return ch, nil
}

func (r *ChannelRepository) GetChannel(ctx context.Context, id int64) (*model.Channel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id=$1`, id)
	return scanChannel(row)
}

func (r *ChannelRepository) GetChannelsByOrganization(ctx context.Context, organizationID string) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE organization_id=$1 AND is_active=TRUE ORDER BY id`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var channels []*model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// GetActiveChannels lists every active channel across organizations; the
// background metric capture loop walks this set.
func (r *ChannelRepository) GetActiveChannels(ctx context.Context) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE is_active=TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var channels []*model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *ChannelRepository) DeactivateChannel(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE channels SET is_active=FALSE, updated_at=now() WHERE id=$1`, id)
	return err
}

func (r *ChannelRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *int64) error {
	var exp *time.Time
	if expiresAt != nil {
		t := time.Unix(*expiresAt, 0).UTC()
		exp = &t
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE channels SET access_token=$2, refresh_token=$3, token_expires_at=$4, updated_at=now() WHERE id=$1`,
		id, accessToken, refreshToken, exp)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanChannel(row rowScanner) (*model.Channel, error) {
	ch := &model.Channel{}
	var expiresAt sql.NullTime
	var meta []byte
	if err := row.Scan(&ch.ID, &ch.OrganizationID, &ch.Platform, &ch.ExternalID, &ch.DisplayName,
		&ch.AccessToken, &ch.RefreshToken, &expiresAt, &ch.IsActive, &meta, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		ch.TokenExpiresAt = &expiresAt.Time
	}
	m, err := model.UnmarshalMeta(meta)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("channel meta unreadable; continuing with empty meta")
		m = model.PlatformMeta{}
	}
	ch.Meta = m
	return ch, nil
}
