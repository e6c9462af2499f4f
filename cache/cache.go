// Package cache holds the read-through cache of user carts.
package cache

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

type CartCache interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Set(ctx context.Context, userID primitive.ObjectID, cart *models.Cart) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never stores anything; every Get is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context, primitive.ObjectID) (*models.Cart, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Set(context.Context, primitive.ObjectID, *models.Cart) error { return nil }

func (NopCache) Delete(context.Context, primitive.ObjectID) error { return nil }
