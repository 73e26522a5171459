package servicebus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"social-hub/domain/model"
	"social-hub/infrastructure/servicebus"
)

// A nil service bus client yields a no-op queue; Enqueue succeeds without
// fanning out.
func TestWebhookQueueWithoutClientIsNoOp(t *testing.T) {
	queue := servicebus.NewWebhookQueue(nil, "webhook-deliveries")
	assert.NotNil(t, queue)
	err := queue.Enqueue(context.Background(), model.WebhookDelivery{Platform: model.PlatformFacebook})
	assert.NoError(t, err)
}
