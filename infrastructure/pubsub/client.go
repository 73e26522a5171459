package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
)

// NewPubSub instantiates the Google Pub/Sub client. Callers treat a nil client
// as "eventing disabled".
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return client, nil
}
