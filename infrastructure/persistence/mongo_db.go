package persistence

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"social-hub/infrastructure/configuration"
)

// NewMongoDb connects the audit store. Failure here is non-fatal for the
// caller; the audit repository tolerates a nil database.
func NewMongoDb(ctx context.Context) (*mongo.Database, error) {
	cfg := configuration.C.Database.Mongo
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = fmt.Sprintf("mongodb://%s:%s", cfg.Host, cfg.Port)
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "social_hub"
	}
	return client.Database(name), nil
}
