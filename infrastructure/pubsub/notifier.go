package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"
	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// INotifier fans integration events out to downstream consumers. Publishing is
// best-effort: callers never fail their operation over a lost notification.
type INotifier interface {
	ChannelConnected(ctx context.Context, ch *model.Channel)
	PostPublished(ctx context.Context, post *model.Post)
	PostPublishFailed(ctx context.Context, channelID int64, platform model.Platform, reason string)
	MetricsHighlight(ctx context.Context, channelID int64, platform model.Platform, engagementRate float64)
}

type Notifier struct {
	client *pubsub.Client
	topic  string
}

// NewNotifier wraps a pubsub client. A nil client yields a no-op notifier so
// environments without pubsub credentials still run.
func NewNotifier(client *pubsub.Client, topic string) INotifier {
	return &Notifier{client: client, topic: topic}
}

type event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func (n *Notifier) ChannelConnected(ctx context.Context, ch *model.Channel) {
	n.publish(ctx, event{Type: "channel.connected", OccurredAt: time.Now().UTC(), Data: map[string]interface{}{
		"channel_id":      ch.ID,
		"organization_id": ch.OrganizationID,
		"platform":        ch.Platform,
		"external_id":     ch.ExternalID,
	}})
}

func (n *Notifier) PostPublished(ctx context.Context, post *model.Post) {
	n.publish(ctx, event{Type: "post.published", OccurredAt: time.Now().UTC(), Data: map[string]interface{}{
		"post_id":          post.ID,
		"channel_id":       post.ChannelID,
		"external_post_id": post.ExternalPostID,
		"status":           post.Status,
	}})
}

func (n *Notifier) PostPublishFailed(ctx context.Context, channelID int64, platform model.Platform, reason string) {
	n.publish(ctx, event{Type: "post.publish_failed", OccurredAt: time.Now().UTC(), Data: map[string]interface{}{
		"channel_id": channelID,
		"platform":   platform,
		"reason":     reason,
	}})
}

func (n *Notifier) MetricsHighlight(ctx context.Context, channelID int64, platform model.Platform, engagementRate float64) {
	n.publish(ctx, event{Type: "metrics.highlight", OccurredAt: time.Now().UTC(), Data: map[string]interface{}{
		"channel_id":      channelID,
		"platform":        platform,
		"engagement_rate": engagementRate,
	}})
}

func (n *Notifier) publish(ctx context.Context, evt event) {
	if n.client == nil || n.topic == "" {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	topic := n.client.Topic(n.topic)
	if _, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error": err,
			"type":  evt.Type,
		}).Warn("Event publish failed")
	}
}
