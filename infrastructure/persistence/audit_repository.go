package persistence

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// AuditRepository writes raw provider payloads to mongo. Best-effort by
// contract: a nil database turns every write into a no-op so the service runs
// without the audit store.
type AuditRepository struct{ db *mongo.Database }

func NewAuditRepository(db *mongo.Database) repository.IAudit { return &AuditRepository{db} }

func (r *AuditRepository) RecordProviderResponse(ctx context.Context, kind, platform, externalID string, payload []byte) error {
	if r.db == nil {
		return nil
	}
	doc := bson.M{
		"kind":        kind,
		"platform":    platform,
		"external_id": externalID,
		"payload":     rawPayload(payload),
		"recorded_at": time.Now().UTC(),
	}
	if _, err := r.db.Collection("provider_responses").InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error": err,
			"kind":  kind,
		}).Warn("audit write failed")
		return err
	}
	return nil
}

func (r *AuditRepository) RecordWebhookDelivery(ctx context.Context, platform string, payload []byte) error {
	if r.db == nil {
		return nil
	}
	doc := bson.M{
		"platform":    platform,
		"payload":     rawPayload(payload),
		"received_at": time.Now().UTC(),
	}
	if _, err := r.db.Collection("webhook_deliveries").InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithField("error", err).Warn("webhook audit write failed")
		return err
	}
	return nil
}

// rawPayload stores valid JSON structurally and anything else as a string.
func rawPayload(payload []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return string(payload)
	}
	return v
}
