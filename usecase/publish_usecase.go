package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/clients/facebook"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/pubsub"
	"social-hub/infrastructure/realtime"
)

type IFacebookPublishAPI interface {
	PublishToFeed(ctx context.Context, pageID, pageToken, message, link string, scheduledAt *time.Time) (*facebook.PublishResult, error)
}

type IInstagramPublishAPI interface {
	CreateMediaContainer(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, []byte, error)
	PublishMedia(ctx context.Context, igUserID, accessToken, containerID string) (string, []byte, error)
}

type IPublishUsecase interface {
	Publish(ctx context.Context, organizationID string, channelID int64, req dto.PublishRequest) (*model.Post, error)
}

type publishUsecase struct {
	channels repository.IChannel
	posts    repository.IPost
	audit    repository.IAudit
	notifier pubsub.INotifier
	hub      *realtime.Hub
	fb       IFacebookPublishAPI
	ig       IInstagramPublishAPI
	now      func() time.Time
}

func NewPublishUsecase(
	channels repository.IChannel,
	posts repository.IPost,
	audit repository.IAudit,
	notifier pubsub.INotifier,
	hub *realtime.Hub,
	fb IFacebookPublishAPI,
	ig IInstagramPublishAPI,
) IPublishUsecase {
	return &publishUsecase{
		channels: channels,
		posts:    posts,
		audit:    audit,
		notifier: notifier,
		hub:      hub,
		fb:       fb,
		ig:       ig,
		now:      time.Now,
	}
}

// Publish runs the provider-specific publish protocol against one channel and
// persists the resulting Post. Failures are synchronous; the provider's raw
// error detail rides the wrapped error for operator diagnosis.
func (u *publishUsecase) Publish(ctx context.Context, organizationID string, channelID int64, req dto.PublishRequest) (*model.Post, error) {
	channel, err := u.channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.OrganizationID != organizationID {
		return nil, fmt.Errorf("channel %d not found for organization", channelID)
	}
	if !channel.IsActive {
		return nil, model.ErrChannelInactive
	}

	var scheduledAt *time.Time
	if req.ScheduledForMs > 0 {
		t := time.UnixMilli(req.ScheduledForMs).UTC()
		if t.After(u.now()) {
			scheduledAt = &t
		}
	}

	var (
		externalID string
		raw        []byte
	)
	switch channel.Platform {
	case model.PlatformFacebook:
		externalID, raw, err = u.publishFacebook(ctx, channel, req, scheduledAt)
	case model.PlatformInstagram:
		externalID, raw, err = u.publishInstagram(ctx, channel, req)
	default:
		err = fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, channel.Platform)
	}
	if err != nil {
		u.notifier.PostPublishFailed(ctx, channel.ID, channel.Platform, err.Error())
		return nil, err
	}

	_ = u.audit.RecordProviderResponse(ctx, "publish", string(channel.Platform), externalID, raw)

	post := &model.Post{
		OrganizationID: organizationID,
		ChannelID:      channel.ID,
		Caption:        req.Caption,
		Type:           postType(req),
		ScheduledAt:    scheduledAt,
		ExternalPostID: &externalID,
		Meta:           json.RawMessage(raw),
	}
	if scheduledAt != nil {
		post.Status = model.PostStatusScheduled
	} else {
		post.Status = model.PostStatusPublished
		now := u.now().UTC()
		post.PublishedAt = &now
	}

	created, err := u.posts.CreatePost(ctx, post)
	if err != nil {
		// The provider accepted the content; surface the persistence failure
		// with the external id so the operator can reconcile.
		return nil, fmt.Errorf("%w: post %s created at provider: %v", model.ErrPersistFailed, externalID, err)
	}

	u.notifier.PostPublished(ctx, created)
	u.hub.BroadcastPostStatus(organizationID, created, channel.Platform, nil)
	logger.GetLogger().WithFields(map[string]interface{}{
		"post_id":          created.ID,
		"external_post_id": externalID,
		"platform":         channel.Platform,
		"status":           created.Status,
	}).Info("Post created")
	return created, nil
}

// publishFacebook posts to the selected page's feed. Permission gating happens
// before any outbound call; scheduling sets published=false with whole-second
// scheduled_publish_time.
func (u *publishUsecase) publishFacebook(ctx context.Context, channel *model.Channel, req dto.PublishRequest, scheduledAt *time.Time) (string, []byte, error) {
	if !channel.Meta.HasPermissions("pages_manage_posts") {
		return "", nil, fmt.Errorf("%w: pages_manage_posts", model.ErrPermissionDenied)
	}
	page := channel.Meta.FirstPage()
	if page == nil {
		return "", nil, fmt.Errorf("%w: no managed page on channel", model.ErrPublishFailed)
	}
	token := page.AccessToken
	if token == "" {
		token = channel.AccessToken
	}

	link := req.ImageURL
	if link == "" {
		link = req.VideoURL
	}
	res, err := u.fb.PublishToFeed(ctx, page.ID, token, req.Caption, link, scheduledAt)
	if err != nil {
		return "", nil, err
	}
	// A 2xx without an id is still a failed publish.
	if res.ID == "" {
		return "", nil, fmt.Errorf("%w: provider response missing id: %s", model.ErrPublishFailed, res.Raw)
	}
	return res.ID, res.Raw, nil
}

// publishInstagram runs the two-step media container protocol. Text-only posts
// are impossible at the provider, so a placeholder image substitutes when the
// caller supplied none.
func (u *publishUsecase) publishInstagram(ctx context.Context, channel *model.Channel, req dto.PublishRequest) (string, []byte, error) {
	if !channel.Meta.HasPermissions("instagram_basic", "instagram_content_publish") {
		return "", nil, fmt.Errorf("%w: instagram_basic, instagram_content_publish", model.ErrPermissionDenied)
	}
	if channel.Meta.Instagram == nil || channel.Meta.Instagram.BusinessAccountID == "" {
		return "", nil, model.ErrMissingBusinessAccount
	}
	igUserID := channel.Meta.Instagram.BusinessAccountID

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = instagram.PlaceholderImageURL
	}

	containerID, containerRaw, err := u.ig.CreateMediaContainer(ctx, igUserID, channel.AccessToken, imageURL, req.Caption)
	if err != nil {
		return "", nil, err
	}
	if containerID == "" {
		return "", nil, fmt.Errorf("%w: container response missing id: %s", model.ErrPublishFailed, containerRaw)
	}

	mediaID, raw, err := u.ig.PublishMedia(ctx, igUserID, channel.AccessToken, containerID)
	if err != nil {
		return "", nil, err
	}
	if mediaID == "" {
		return "", nil, fmt.Errorf("%w: media_publish response missing id: %s", model.ErrPublishFailed, raw)
	}
	return mediaID, raw, nil
}

func postType(req dto.PublishRequest) string {
	if req.Type != "" {
		return req.Type
	}
	switch {
	case req.VideoURL != "":
		return "video"
	case req.ImageURL != "":
		return "image"
	}
	return "text"
}
