package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection           = "users"
	ProductsCollection        = "products"
	OrdersCollection          = "orders"
	CartsCollection           = "carts"
	BlacklistTokensCollection = "blacklist_tokens"
)

// ConnectMongo opens a pooled client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	if uri == "" || dbName == "" {
		return nil, fmt.Errorf("mongo uri and database name are required")
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(dbName), nil
}

// Collections groups the handles of every collection the API uses.
type Collections struct {
	Users           *mongo.Collection
	Products        *mongo.Collection
	Orders          *mongo.Collection
	Carts           *mongo.Collection
	BlacklistTokens *mongo.Collection
}

func InitCollections(db *mongo.Database) *Collections {
	return &Collections{
		Users:           db.Collection(UsersCollection),
		Products:        db.Collection(ProductsCollection),
		Orders:          db.Collection(OrdersCollection),
		Carts:           db.Collection(CartsCollection),
		BlacklistTokens: db.Collection(BlacklistTokensCollection),
	}
}

// CreateIndexes installs the schema-level constraints: unique emails, one
// cart per user, order lookups by owner, and expiry of blacklisted tokens.
func (c *Collections) CreateIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{c.Users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{c.Carts, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{c.Orders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		}},
		{c.Products, []mongo.IndexModel{
			{Keys: bson.D{{Key: "category", Value: 1}}},
		}},
		{c.BlacklistTokens, []mongo.IndexModel{
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}
