package persistence

import (
	"context"
	"database/sql"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// ChannelRepositoryMSSQL is the SQL Server implementation of IChannel. The
// atomic upsert uses MERGE with HOLDLOCK, the SQL Server equivalent of
// Postgres ON CONFLICT.
type ChannelRepositoryMSSQL struct{ db *sql.DB }

func NewChannelRepositoryMSSQL(db *sql.DB) repository.IChannel { return &ChannelRepositoryMSSQL{db} }

const channelColumnsMSSQL = `id, organization_id, platform, external_id, display_name, access_token, refresh_token, token_expires_at, is_active, meta, created_at, updated_at`

func (r *ChannelRepositoryMSSQL) UpsertChannel(ctx context.Context, up repository.ChannelUpsert) (*model.Channel, error) {
	meta, err := model.MarshalMeta(up.Meta)
	if err != nil {
		return nil, err
	}
	var expiresAt *time.Time
	if up.TokenExpiresAt != nil {
		t := time.Unix(*up.TokenExpiresAt, 0).UTC()
		expiresAt = &t
	}
	q := `MERGE dbo.[channels] WITH (HOLDLOCK) AS target
		  USING (SELECT @p1 AS organization_id, @p2 AS platform, @p3 AS external_id) AS src
		  ON target.organization_id = src.organization_id AND target.platform = src.platform AND target.external_id = src.external_id
		  WHEN MATCHED THEN UPDATE SET
			display_name=@p4, access_token=@p5, refresh_token=@p6, token_expires_at=@p7, is_active=1, meta=@p8, updated_at=SYSDATETIME()
		  WHEN NOT MATCHED THEN INSERT (organization_id, platform, external_id, display_name, access_token, refresh_token, token_expires_at, is_active, meta, created_at, updated_at)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, 1, @p8, SYSDATETIME(), SYSDATETIME())
		  OUTPUT inserted.id, inserted.organization_id, inserted.platform, inserted.external_id, inserted.display_name, inserted.access_token, inserted.refresh_token, inserted.token_expires_at, inserted.is_active, inserted.meta, inserted.created_at, inserted.updated_at;`
	row := r.db.QueryRowContext(ctx, q, up.OrganizationID, string(up.Platform), up.ExternalID, up.DisplayName, up.AccessToken, up.RefreshToken, expiresAt, string(meta))
	ch, err := scanChannel(row)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": up.Platform,
		}).Error("mssql: upsert channel failed")
		return nil, err
	}
	return ch, nil
}

func (r *ChannelRepositoryMSSQL) GetChannel(ctx context.Context, id int64) (*model.Channel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+channelColumnsMSSQL+` FROM dbo.[channels] WHERE id=@p1`, id)
	return scanChannel(row)
}

func (r *ChannelRepositoryMSSQL) GetChannelsByOrganization(ctx context.Context, organizationID string) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumnsMSSQL+` FROM dbo.[channels] WHERE organization_id=@p1 AND is_active=1 ORDER BY id`, organizationID)
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

func (r *ChannelRepositoryMSSQL) GetActiveChannels(ctx context.Context) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumnsMSSQL+` FROM dbo.[channels] WHERE is_active=1 ORDER BY id`)
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

func (r *ChannelRepositoryMSSQL) DeactivateChannel(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[channels] SET is_active=0, updated_at=SYSDATETIME() WHERE id=@p1`, id)
	return err
}

func (r *ChannelRepositoryMSSQL) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *int64) error {
	var exp *time.Time
	if expiresAt != nil {
		t := time.Unix(*expiresAt, 0).UTC()
		exp = &t
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[channels] SET access_token=@p2, refresh_token=@p3, token_expires_at=@p4, updated_at=SYSDATETIME() WHERE id=@p1`,
		id, accessToken, refreshToken, exp)
	return err
}
