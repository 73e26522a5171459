package pubsub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"social-hub/domain/model"
	"social-hub/infrastructure/pubsub"
)

// A nil pubsub client yields a no-op notifier; events are dropped silently.
func TestNotifierWithoutClientIsNoOp(t *testing.T) {
	notifier := pubsub.NewNotifier(nil, "integration-events")
	assert.NotNil(t, notifier)
	notifier.ChannelConnected(context.Background(), &model.Channel{ID: 1, Platform: model.PlatformFacebook})
	notifier.PostPublishFailed(context.Background(), 1, model.PlatformFacebook, "token expired")
}
