package repository

import "context"

// IAudit is the append-only raw provider payload log. Writes are best-effort:
// callers log failures and continue.
type IAudit interface {
	RecordProviderResponse(ctx context.Context, kind, platform, externalID string, payload []byte) error
	RecordWebhookDelivery(ctx context.Context, platform string, payload []byte) error
}
