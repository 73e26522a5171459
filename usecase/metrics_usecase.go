package usecase

import (
	"context"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/infrastructure/pubsub"
)

const (
	metricCaptureWindowDays = 7
	metricPostLookback      = 50
	// highlightEngagementRate is the engagement-rate percentage above which a
	// channel gets a metrics.highlight event.
	highlightEngagementRate = 5.0
)

// IMetricsUsecase captures append-only metric samples for published posts on a
// schedule.
type IMetricsUsecase interface {
	CaptureOnce(ctx context.Context) error
	Run(ctx context.Context, interval time.Duration)
}

type metricsUsecase struct {
	channels  repository.IChannel
	posts     repository.IPost
	analytics IAnalyticsUsecase
	notifier  pubsub.INotifier
}

func NewMetricsUsecase(
	channels repository.IChannel,
	posts repository.IPost,
	analytics IAnalyticsUsecase,
	notifier pubsub.INotifier,
) IMetricsUsecase {
	return &metricsUsecase{
		channels:  channels,
		posts:     posts,
		analytics: analytics,
		notifier:  notifier,
	}
}

// Run captures on a fixed interval until the context ends. The first capture
// happens one interval in, not at startup, so deploys do not stampede the
// provider APIs.
func (u *metricsUsecase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := u.CaptureOnce(ctx); err != nil {
				logger.GetLogger().WithField("error", err).Warn("Metric capture cycle failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// CaptureOnce walks every active channel, pulls fresh analytics, and appends a
// metric sample for each tracked post the provider still reports. Channels
// fail independently.
func (u *metricsUsecase) CaptureOnce(ctx context.Context) error {
	channels, err := u.channels.GetActiveChannels(ctx)
	if err != nil {
		return err
	}

	recentByOrg := map[string][]*model.Post{}
	for _, ch := range channels {
		pa, err := u.analytics.Analyze(ctx, ch, metricCaptureWindowDays)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":      err,
				"channel_id": ch.ID,
			}).Warn("Metric capture skipped channel")
			continue
		}

		if _, ok := recentByOrg[ch.OrganizationID]; !ok {
			posts, err := u.posts.GetRecentPublished(ctx, ch.OrganizationID, metricPostLookback)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":           err,
					"organization_id": ch.OrganizationID,
				}).Warn("Recent post lookup failed")
				posts = nil
			}
			recentByOrg[ch.OrganizationID] = posts
		}

		byExternalID := make(map[string]model.PostAnalytics, len(pa.RecentPosts))
		for _, item := range pa.RecentPosts {
			byExternalID[item.ExternalID] = item
		}
		captured := 0
		for _, post := range recentByOrg[ch.OrganizationID] {
			if post.ChannelID != ch.ID || post.ExternalPostID == nil {
				continue
			}
			item, ok := byExternalID[*post.ExternalPostID]
			if !ok {
				continue
			}
			metric := &model.PostMetric{
				PostID:      post.ID,
				CapturedAt:  time.Now().UTC(),
				Impressions: item.Impressions,
				Reach:       item.Reach,
				Likes:       item.Likes,
				Comments:    item.Comments,
				Shares:      item.Shares,
				Engagement:  item.Engagement,
			}
			if err := u.posts.CreatePostMetric(ctx, metric); err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":   err,
					"post_id": post.ID,
				}).Warn("Metric sample write failed")
				continue
			}
			captured++
		}

		if pa.Insights.EngagementRate >= highlightEngagementRate {
			u.notifier.MetricsHighlight(ctx, ch.ID, ch.Platform, pa.Insights.EngagementRate)
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"channel_id": ch.ID,
			"captured":   captured,
		}).Debug("Metric capture finished for channel")
	}
	return nil
}
