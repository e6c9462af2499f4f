package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"storefront/database"
)

// NewMongoStore returns a Store backed by the given database's collections.
// Closing the store disconnects the underlying client.
func NewMongoStore(db *mongo.Database) *Store {
	colls := database.InitCollections(db)
	return NewStore(
		&mongoProductRepository{collection: colls.Products},
		&mongoCartRepository{collection: colls.Carts},
		&mongoOrderRepository{collection: colls.Orders},
		&mongoUserRepository{collection: colls.Users},
		&mongoTokenBlacklist{collection: colls.BlacklistTokens},
		func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	)
}

// notFound maps mongo.ErrNoDocuments to ErrNotFound and wraps anything else.
func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
