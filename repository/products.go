package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func (m *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m *mongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err, "find product")
	}
	return &product, nil
}

func (m *mongoProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.collection.Find(ctx, productQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func productQuery(f models.ProductFilter) bson.M {
	query := bson.M{}
	if f.Keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if f.MinRating != nil {
		query["rating"] = bson.M{"$gte": *f.MinRating}
	}
	return query
}

func (m *mongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate, now time.Time) (*models.Product, error) {
	set := bson.M{"updatedAt": now}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Stock != nil {
		set["stock"] = *update.Stock
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Rating != nil {
		set["rating"] = *update.Rating
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, notFound(err, "update product")
	}
	return &product, nil
}

func (m *mongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	filter := bson.M{
		"_id":   id,
		"stock": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStockConflict
	}
	return nil
}

func (m *mongoProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
