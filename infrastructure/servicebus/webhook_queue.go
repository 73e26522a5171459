package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// IWebhookQueue hands inbound provider deliveries to asynchronous processing.
// Delivery downstream is at-least-once; consumers must dedupe.
type IWebhookQueue interface {
	Enqueue(ctx context.Context, delivery model.WebhookDelivery) error
}

type WebhookQueue struct {
	client *azservicebus.Client
	queue  string
}

// NewServiceBusClient authenticates with the default Azure credential chain.
func NewServiceBusClient(namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// NewWebhookQueue wraps a service bus client. A nil client yields a no-op
// queue; deliveries are still audited, just not fanned out.
func NewWebhookQueue(client *azservicebus.Client, queue string) IWebhookQueue {
	return &WebhookQueue{client: client, queue: queue}
}

func (q *WebhookQueue) Enqueue(ctx context.Context, delivery model.WebhookDelivery) error {
	if q.client == nil {
		return nil
	}
	sender, err := q.client.NewSender(q.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func() {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}()

	body, err := json.Marshal(delivery)
	if err != nil {
		return err
	}
	subject := string(delivery.Platform)
	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: body, Subject: &subject}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
