package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthfacebook "golang.org/x/oauth2/facebook"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/cache"
	"social-hub/infrastructure/clients/facebook"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/clients/tiktok"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/oauthstate"
	"social-hub/infrastructure/pubsub"
)

// Provider surfaces the connect flow needs. The concrete API clients satisfy
// these; tests substitute fakes.
type IFacebookConnectAPI interface {
	ExchangeCode(ctx context.Context, code string) (*facebook.TokenResponse, error)
	Me(ctx context.Context, accessToken string) (*facebook.UserInfo, error)
	MyPages(ctx context.Context, accessToken string) ([]model.ManagedPage, error)
	GrantedPermissions(ctx context.Context, accessToken string) ([]string, error)
}

type IInstagramConnectAPI interface {
	ExchangeCode(ctx context.Context, code string) (*instagram.TokenResponse, error)
	Me(ctx context.Context, accessToken string) (*instagram.UserInfo, error)
	Profile(ctx context.Context, igUserID, accessToken string) (*instagram.UserInfo, error)
}

type ITikTokConnectAPI interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*tiktok.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error)
	UserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error)
}

type IConnectUsecase interface {
	Initiate(ctx context.Context, userID, organizationID string, platform model.Platform) (*dto.ConnectInitiateResponse, error)
	HandleCallback(ctx context.Context, platform model.Platform, code, state, errParam string) (*dto.ConnectCallbackResponse, error)
	Disconnect(ctx context.Context, organizationID string, channelID int64) error
	RefreshChannelToken(ctx context.Context, organizationID string, channelID int64) (*model.Channel, error)
}

type connectUsecase struct {
	channels       repository.IChannel
	audit          repository.IAudit
	codec          *oauthstate.Codec
	replay         *cache.ReplayGuard
	notifier       pubsub.INotifier
	fb             IFacebookConnectAPI
	ig             IInstagramConnectAPI
	tk             ITikTokConnectAPI
	platformConfig func(string) configuration.OAuthClient
}

func NewConnectUsecase(
	channels repository.IChannel,
	audit repository.IAudit,
	codec *oauthstate.Codec,
	replay *cache.ReplayGuard,
	notifier pubsub.INotifier,
	fb IFacebookConnectAPI,
	ig IInstagramConnectAPI,
	tk ITikTokConnectAPI,
) IConnectUsecase {
	return &connectUsecase{
		channels:       channels,
		audit:          audit,
		codec:          codec,
		replay:         replay,
		notifier:       notifier,
		fb:             fb,
		ig:             ig,
		tk:             tk,
		platformConfig: configuration.GetPlatformConfig,
	}
}

// Initiate builds the provider authorization URL carrying the signed state.
// Stateless: everything the callback needs travels inside the state value.
func (u *connectUsecase) Initiate(ctx context.Context, userID, organizationID string, platform model.Platform) (*dto.ConnectInitiateResponse, error) {
	cfg := u.platformConfig(string(platform))
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: %s", model.ErrConfiguration, platform)
	}

	state, err := u.codec.Encode(model.OAuthState{
		UserID:         userID,
		OrganizationID: organizationID,
		Platform:       platform,
	})
	if err != nil {
		return nil, err
	}

	var authURL string
	switch platform {
	case model.PlatformFacebook, model.PlatformInstagram:
		// Instagram business login rides the Facebook dialog.
		oc := oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     oauthfacebook.Endpoint,
		}
		authURL = oc.AuthCodeURL(state)
	case model.PlatformTikTok:
		// TikTok names the parameter client_key, so the URL is built manually.
		authURL = u.tk.AuthURL(state)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, platform)
	}

	return &dto.ConnectInitiateResponse{
		AuthURL:  authURL,
		State:    state,
		Platform: string(platform),
	}, nil
}

// HandleCallback runs the callback state machine. Any failure is terminal for
// the round-trip; the user must re-initiate.
func (u *connectUsecase) HandleCallback(ctx context.Context, platform model.Platform, code, state, errParam string) (*dto.ConnectCallbackResponse, error) {
	// A provider error parameter short-circuits before state is touched.
	if errParam != "" {
		return nil, fmt.Errorf("%w: %s", model.ErrOAuthDenied, errParam)
	}

	st, err := u.codec.Decode(state)
	if err != nil {
		return nil, err
	}
	if st.Platform != platform {
		return nil, fmt.Errorf("%w: platform mismatch", model.ErrInvalidState)
	}
	if !u.replay.Consume(ctx, st.Nonce) {
		return nil, model.ErrReplayedState
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", model.ErrInvalidState)
	}

	var up repository.ChannelUpsert
	switch platform {
	case model.PlatformFacebook:
		up, err = u.facebookCallback(ctx, code)
	case model.PlatformInstagram:
		up, err = u.instagramCallback(ctx, code)
	case model.PlatformTikTok:
		up, err = u.tiktokCallback(ctx, code)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, platform)
	}
	if err != nil {
		return nil, err
	}
	up.OrganizationID = st.OrganizationID
	up.Platform = platform

	ch, err := u.channels.UpsertChannel(ctx, up)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistFailed, err)
	}

	if payload, merr := model.MarshalMeta(ch.Meta); merr == nil {
		_ = u.audit.RecordProviderResponse(ctx, "oauth_callback", string(platform), ch.ExternalID, payload)
	}
	u.notifier.ChannelConnected(ctx, ch)
	logger.GetLogger().WithFields(map[string]interface{}{
		"channel_id": ch.ID,
		"platform":   platform,
	}).Info("Channel connected")

	return &dto.ConnectCallbackResponse{
		Connected:   true,
		Platform:    string(platform),
		ExternalID:  ch.ExternalID,
		DisplayName: ch.DisplayName,
		ChannelID:   ch.ID,
	}, nil
}

func (u *connectUsecase) facebookCallback(ctx context.Context, code string) (repository.ChannelUpsert, error) {
	tok, err := u.fb.ExchangeCode(ctx, code)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrTokenExchangeFailed, err)
	}
	me, err := u.fb.Me(ctx, tok.AccessToken)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
	}

	// Supplementary data is best-effort; requested and granted scopes differ
	// routinely, and a page list fetch can fail without failing the connect.
	perms, err := u.fb.GrantedPermissions(ctx, tok.AccessToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Granted permissions fetch failed; storing empty set")
		perms = nil
	}
	pages, err := u.fb.MyPages(ctx, tok.AccessToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Managed pages fetch failed; storing empty list")
		pages = nil
	}

	displayName := me.Name
	if hint := u.platformConfig(string(model.PlatformFacebook)).PageNameHint; hint != "" {
		for _, p := range pages {
			if strings.EqualFold(p.Name, hint) {
				displayName = p.Name
				break
			}
		}
	} else if len(pages) > 0 {
		displayName = pages[0].Name
	}

	return repository.ChannelUpsert{
		ExternalID:     me.ID,
		DisplayName:    displayName,
		AccessToken:    tok.AccessToken,
		TokenExpiresAt: expiryFromNow(tok.ExpiresIn),
		Meta: model.PlatformMeta{
			Permissions: model.CoercePermissions(perms),
			Facebook:    &model.FacebookMeta{UserID: me.ID, Name: me.Name, Pages: pages},
		},
	}, nil
}

func (u *connectUsecase) instagramCallback(ctx context.Context, code string) (repository.ChannelUpsert, error) {
	tok, err := u.ig.ExchangeCode(ctx, code)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrTokenExchangeFailed, err)
	}
	me, err := u.ig.Me(ctx, tok.AccessToken)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
	}

	meta := model.InstagramMeta{UserID: me.ID, BusinessAccountID: me.BusinessAccountID}
	externalID := me.ID
	displayName := me.Name
	if me.BusinessAccountID != "" {
		externalID = me.BusinessAccountID
		// Username and follower count come from the business account node.
		if profile, err := u.ig.Profile(ctx, me.BusinessAccountID, tok.AccessToken); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Instagram profile fetch failed; storing identity only")
		} else {
			meta.Username = profile.Username
			meta.FollowersCount = profile.FollowersCount
			if profile.Username != "" {
				displayName = profile.Username
			}
		}
	}

	cfg := u.platformConfig(string(model.PlatformInstagram))
	return repository.ChannelUpsert{
		ExternalID:     externalID,
		DisplayName:    displayName,
		AccessToken:    tok.AccessToken,
		TokenExpiresAt: expiryFromNow(tok.ExpiresIn),
		Meta: model.PlatformMeta{
			Permissions: model.CoercePermissions(cfg.Scopes),
			Instagram:   &meta,
		},
	}, nil
}

func (u *connectUsecase) tiktokCallback(ctx context.Context, code string) (repository.ChannelUpsert, error) {
	tok, err := u.tk.ExchangeCode(ctx, code)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrTokenExchangeFailed, err)
	}
	info, err := u.tk.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		return repository.ChannelUpsert{}, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
	}

	externalID := info.OpenID
	if externalID == "" {
		externalID = tok.OpenID
	}
	return repository.ChannelUpsert{
		ExternalID:     externalID,
		DisplayName:    info.DisplayName,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		TokenExpiresAt: expiryFromNow(tok.ExpiresIn),
		Meta: model.PlatformMeta{
			Permissions: model.CoercePermissions(tok.Scope),
			TikTok: &model.TikTokMeta{
				OpenID:      externalID,
				DisplayName: info.DisplayName,
				AvatarURL:   info.AvatarURL,
			},
		},
	}, nil
}

func (u *connectUsecase) Disconnect(ctx context.Context, organizationID string, channelID int64) error {
	ch, err := u.channels.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ch.OrganizationID != organizationID {
		return fmt.Errorf("channel %d not found for organization", channelID)
	}
	return u.channels.DeactivateChannel(ctx, channelID)
}

// RefreshChannelToken trades the stored refresh token for a fresh pair. Only
// TikTok issues refresh tokens; other platforms report ErrRefreshUnsupported.
func (u *connectUsecase) RefreshChannelToken(ctx context.Context, organizationID string, channelID int64) (*model.Channel, error) {
	ch, err := u.channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.OrganizationID != organizationID {
		return nil, fmt.Errorf("channel %d not found for organization", channelID)
	}
	if ch.Platform != model.PlatformTikTok {
		return nil, fmt.Errorf("%w: %s", model.ErrRefreshUnsupported, ch.Platform)
	}
	if ch.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored", model.ErrTokenRefreshFailed)
	}

	tok, err := u.tk.RefreshToken(ctx, ch.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTokenRefreshFailed, err)
	}
	if err := u.channels.UpdateTokens(ctx, ch.ID, tok.AccessToken, tok.RefreshToken, expiryFromNow(tok.ExpiresIn)); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistFailed, err)
	}
	return u.channels.GetChannel(ctx, ch.ID)
}

// expiryFromNow converts a provider expires_in to epoch seconds; zero means
// the provider reported no expiry.
func expiryFromNow(expiresIn int64) *int64 {
	if expiresIn <= 0 {
		return nil
	}
	at := time.Now().Unix() + expiresIn
	return &at
}
