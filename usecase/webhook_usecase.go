package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/servicebus"
)

type IFacebookWebhookAPI interface {
	SubscribePage(ctx context.Context, pageID, pageToken string, fields []string) error
	UnsubscribePage(ctx context.Context, pageID, accessToken string) error
	PageSubscriptions(ctx context.Context, pageID, accessToken string) ([]model.WebhookSubscription, error)
	MyPages(ctx context.Context, accessToken string) ([]model.ManagedPage, error)
}

type IWebhookUsecase interface {
	Subscribe(ctx context.Context, pageID, pageAccessToken string) error
	Unsubscribe(ctx context.Context, pageID, accessToken string) error
	Status(ctx context.Context, pageID, accessToken string) (*model.SubscriptionStatus, error)
	SetupForChannel(ctx context.Context, organizationID string, channelID int64) (*model.WebhookSetupResult, error)
	Verify(mode, token, challenge string) (string, bool)
	Ingest(ctx context.Context, platform string, payload []byte) error
}

type webhookUsecase struct {
	channels    repository.IChannel
	audit       repository.IAudit
	queue       servicebus.IWebhookQueue
	fb          IFacebookWebhookAPI
	verifyToken string
}

func NewWebhookUsecase(
	channels repository.IChannel,
	audit repository.IAudit,
	queue servicebus.IWebhookQueue,
	fb IFacebookWebhookAPI,
	verifyToken string,
) IWebhookUsecase {
	return &webhookUsecase{
		channels:    channels,
		audit:       audit,
		queue:       queue,
		fb:          fb,
		verifyToken: verifyToken,
	}
}

func (u *webhookUsecase) Subscribe(ctx context.Context, pageID, pageAccessToken string) error {
	if err := u.fb.SubscribePage(ctx, pageID, pageAccessToken, model.SubscriptionFields); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"page_id": pageID,
		}).Error("Page subscribe failed")
		return err
	}
	return nil
}

func (u *webhookUsecase) Unsubscribe(ctx context.Context, pageID, accessToken string) error {
	if err := u.fb.UnsubscribePage(ctx, pageID, accessToken); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"page_id": pageID,
		}).Error("Page unsubscribe failed")
		return err
	}
	return nil
}

// Status derives subscription state from the provider, never from local rows.
func (u *webhookUsecase) Status(ctx context.Context, pageID, accessToken string) (*model.SubscriptionStatus, error) {
	subs, err := u.fb.PageSubscriptions(ctx, pageID, accessToken)
	if err != nil {
		return nil, err
	}
	return &model.SubscriptionStatus{
		PageID:        pageID,
		IsSubscribed:  len(subs) > 0,
		Subscriptions: subs,
	}, nil
}

// SetupForChannel enrolls every page the channel's token administers. Pages
// fail independently; partial success is success.
func (u *webhookUsecase) SetupForChannel(ctx context.Context, organizationID string, channelID int64) (*model.WebhookSetupResult, error) {
	channel, err := u.channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.OrganizationID != organizationID {
		return nil, fmt.Errorf("channel %d not found for organization", channelID)
	}
	if channel.Platform != model.PlatformFacebook {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, channel.Platform)
	}

	pages := []model.ManagedPage(nil)
	if channel.Meta.Facebook != nil {
		pages = channel.Meta.Facebook.Pages
	}
	if len(pages) == 0 {
		pages, err = u.fb.MyPages(ctx, channel.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	result := &model.WebhookSetupResult{}
	for _, page := range pages {
		result.PagesProcessed++
		token := page.AccessToken
		if token == "" {
			token = channel.AccessToken
		}
		if err := u.fb.SubscribePage(ctx, page.ID, token, model.SubscriptionFields); err != nil {
			result.Errors = append(result.Errors, model.PageSetupError{PageID: page.ID, Detail: err.Error()})
			continue
		}
		result.PagesSubscribed++
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"channel_id":       channelID,
		"pages_processed":  result.PagesProcessed,
		"pages_subscribed": result.PagesSubscribed,
		"failures":         len(result.Errors),
	}).Info("Webhook setup finished")
	return result, nil
}

// Verify answers the provider's callback verification handshake.
func (u *webhookUsecase) Verify(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || u.verifyToken == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(u.verifyToken)) != 1 {
		return "", false
	}
	return challenge, true
}

// Ingest records an inbound delivery and hands it to the fan-out queue.
// Delivery downstream is at-least-once; the audit write is best-effort.
func (u *webhookUsecase) Ingest(ctx context.Context, platform string, payload []byte) error {
	p, ok := model.ParsePlatform(platform)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, platform)
	}
	if err := u.audit.RecordWebhookDelivery(ctx, string(p), payload); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Webhook audit write failed")
	}
	return u.queue.Enqueue(ctx, model.WebhookDelivery{
		Platform:   p,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	})
}
