package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func (m *mongoCartRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := m.collection.FindOne(ctx, bson.M{"user": userID}).Decode(&cart); err != nil {
		return nil, notFound(err, "get cart")
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save upserts the user's cart. The stored _id and createdAt win over the
// ones on cart, so a cart built fresh for a user who already has one still
// lands on the existing document.
func (m *mongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	id := cart.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}

	update := bson.M{
		"$set": bson.M{
			"items":      cart.Items,
			"totalPrice": cart.TotalPrice,
			"updatedAt":  cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       id,
			"createdAt": cart.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Cart
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"user": cart.UserID}, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the insert race on the unique user index; the document exists now.
		err = m.collection.FindOneAndUpdate(ctx, bson.M{"user": cart.UserID}, update, opts).Decode(&stored)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	cart.ID = stored.ID
	cart.CreatedAt = stored.CreatedAt
	return nil
}

func (m *mongoCartRepository) Clear(ctx context.Context, userID primitive.ObjectID, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"totalPrice": 0,
			"updatedAt":  now,
		},
	}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user": userID}, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
