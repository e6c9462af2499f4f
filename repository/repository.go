// Package repository defines the storage contracts of the storefront and
// their MongoDB implementations. The memstore subpackage provides an
// in-memory implementation of the same contracts.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStockConflict means a guarded stock decrement found less stock
	// than requested (or no product at all).
	ErrStockConflict = errors.New("insufficient stock for conditional decrement")
	// ErrStateConflict means a guarded order update found the order in the
	// state it must not be in.
	ErrStateConflict = errors.New("order is in a state that forbids the update")
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate, now time.Time) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock subtracts qty only if at least qty units are in stock.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	Count(ctx context.Context) (int64, error)
}

type CartRepository interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// Save upserts the user's cart.
	Save(ctx context.Context, cart *models.Cart) error
	// Clear empties an existing cart. A missing cart is not an error.
	Clear(ctx context.Context, userID primitive.ObjectID, now time.Time) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	// List returns all orders, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int64) ([]models.Order, error)
	// Update applies u unless the order currently has status guard, in
	// which case ErrStateConflict is returned. An empty guard disables the
	// check.
	Update(ctx context.Context, id primitive.ObjectID, u models.OrderUpdate, guard models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (float64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns all users, newest first.
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// Store bundles one implementation of every repository.
type Store struct {
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Users    UserRepository
	Tokens   TokenBlacklist

	closer func(context.Context) error
}

func NewStore(products ProductRepository, carts CartRepository, orders OrderRepository,
	users UserRepository, tokens TokenBlacklist, closer func(context.Context) error) *Store {
	return &Store{
		Products: products,
		Carts:    carts,
		Orders:   orders,
		Users:    users,
		Tokens:   tokens,
		closer:   closer,
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
