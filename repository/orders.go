package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func (m *mongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err, "find order")
	}
	return &order, nil
}

func (m *mongoOrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return m.find(ctx, bson.M{"user": userID}, 0)
}

func (m *mongoOrderRepository) List(ctx context.Context, limit int64) ([]models.Order, error) {
	return m.find(ctx, bson.M{}, limit)
}

func (m *mongoOrderRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) Update(ctx context.Context, id primitive.ObjectID, u models.OrderUpdate, guard models.OrderStatus) (*models.Order, error) {
	set := bson.M{"updatedAt": u.UpdatedAt}
	if u.OrderStatus != nil {
		set["orderStatus"] = *u.OrderStatus
	}
	if u.IsPaid != nil {
		set["isPaid"] = *u.IsPaid
	}
	if u.PaidAt != nil {
		set["paidAt"] = *u.PaidAt
	}
	if u.IsDelivered != nil {
		set["isDelivered"] = *u.IsDelivered
	}
	if u.DeliveredAt != nil {
		set["deliveredAt"] = *u.DeliveredAt
	}
	if u.PaymentInfo != nil {
		set["paymentInfo"] = *u.PaymentInfo
	}

	filter := bson.M{"_id": id}
	if guard != "" {
		filter["orderStatus"] = bson.M{"$ne": guard}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := m.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) || guard == "" {
		return nil, notFound(err, "update order")
	}

	// The guarded filter matched nothing: either the order is gone or it
	// holds the guarded status.
	if _, findErr := m.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrStateConflict
}

func (m *mongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoOrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (m *mongoOrderRepository) TotalSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	}
	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("failed to decode sales: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}
