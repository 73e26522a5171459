package model

import (
	"encoding/json"
	"time"
)

// SubscriptionFields is the fixed field list registered on a page's
// subscribed-apps edge.
var SubscriptionFields = []string{
	"feed", "insights", "engagement", "messages", "messaging_postbacks", "page_changes",
}

// WebhookSubscription mirrors one provider-side registration. Status is
// derived by querying the provider; it is not stored locally as a source of
// truth.
type WebhookSubscription struct {
	PageID string   `json:"page_id"`
	Fields []string `json:"fields"`
}

// SubscriptionStatus is the result of querying a page's subscribed-apps edge.
type SubscriptionStatus struct {
	PageID        string                `json:"page_id"`
	IsSubscribed  bool                  `json:"is_subscribed"`
	Subscriptions []WebhookSubscription `json:"subscriptions"`
}

// PageSetupError records one page that failed during channel-wide setup.
type PageSetupError struct {
	PageID string `json:"page_id"`
	Detail string `json:"detail"`
}

// WebhookSetupResult accumulates per-page outcomes. Partial success counts as
// success: the call reports success when at least one page subscribed.
type WebhookSetupResult struct {
	PagesProcessed  int              `json:"pages_processed"`
	PagesSubscribed int              `json:"pages_subscribed"`
	Errors          []PageSetupError `json:"errors,omitempty"`
}

func (r WebhookSetupResult) Success() bool { return r.PagesSubscribed > 0 }

// WebhookDelivery is one inbound push event from a provider, recorded for
// audit and handed to the fan-out queue. Delivery is at-least-once.
type WebhookDelivery struct {
	Platform   Platform        `json:"platform"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}
