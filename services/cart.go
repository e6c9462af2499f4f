package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"

	"storefront/apperror"
	"storefront/cache"
	"storefront/clock"
	"storefront/models"
	"storefront/repository"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	clock    clock.Clock
	logger   *slog.Logger
	sfg      singleflight.Group // collapses concurrent cache misses per user

	genMu sync.Mutex
	gens  map[primitive.ObjectID]uint64 // bumped on every cart write
}

const cartLoadTimeout = 5 * time.Second

func NewCartService(carts repository.CartRepository, products repository.ProductRepository,
	cartCache cache.CartCache, clk clock.Clock, logger *slog.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.NopCache{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cartCache,
		clock:    clk,
		logger:   loggerOrDefault(logger),
		gens:     make(map[primitive.ObjectID]uint64),
	}
}

// Get returns the user's cart. A user without a cart gets an empty one.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(userID.Hex(), func() (interface{}, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		ctx, cancel := context.WithTimeout(detached(ctx), cartLoadTimeout)
		defer cancel()

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "cart cache get failed", "user_id", userID.Hex(), "error", err)
		}

		gen := s.generation(userID)
		cart, err = s.carts.GetByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewCart(userID), nil
		}
		if err != nil {
			return nil, apperror.Internal(err, "Server error")
		}
		s.fill(ctx, cart, gen)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// fill caches a cart read at generation gen. A write that lands after the
// read bumps the generation, and the entry is then skipped or dropped.
func (s *CartService) fill(ctx context.Context, cart *models.Cart, gen uint64) {
	if s.generation(cart.UserID) != gen {
		return
	}
	if err := s.cache.Set(ctx, cart.UserID, cart); err != nil {
		s.logger.WarnContext(ctx, "cart cache set failed", "user_id", cart.UserID.Hex(), "error", err)
		return
	}
	if s.generation(cart.UserID) != gen {
		if err := s.cache.Delete(ctx, cart.UserID); err != nil {
			s.logger.WarnContext(ctx, "cart cache invalidate failed", "user_id", cart.UserID.Hex(), "error", err)
		}
	}
}

func (s *CartService) generation(userID primitive.ObjectID) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[userID]
}

// Add puts quantity units of a product in the cart. Adding a product that is
// already in the cart sums the quantities.
func (s *CartService) Add(ctx context.Context, userID primitive.ObjectID, productID string, quantity int) (*models.Cart, error) {
	pid, err := ParseID(productID, "product")
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperror.Validation("Quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, pid)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	if product.Stock < quantity {
		return nil, apperror.InsufficientStock("Insufficient stock")
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		cart = models.NewCart(userID)
		cart.CreatedAt = s.clock.Now()
	} else if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}

	if i := cart.FindProduct(pid); i >= 0 {
		cart.Items[i].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        primitive.NewObjectID(),
			ProductID: pid,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		})
	}
	return s.save(ctx, cart)
}

// UpdateItem sets the quantity of a cart line.
func (s *CartService) UpdateItem(ctx context.Context, userID primitive.ObjectID, itemID string, quantity int) (*models.Cart, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	iid, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, apperror.NotFound("Item not found in cart")
	}
	i := cart.FindItem(iid)
	if i < 0 {
		return nil, apperror.NotFound("Item not found in cart")
	}
	if quantity < 1 {
		return nil, apperror.Validation("Quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, cart.Items[i].ProductID)
	switch {
	case err == nil:
		if product.Stock < quantity {
			return nil, apperror.InsufficientStock("Insufficient stock")
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Internal(err, "Server error")
	}

	cart.Items[i].Quantity = quantity
	return s.save(ctx, cart)
}

// RemoveItem drops a cart line. Removing a line that is not in the cart
// leaves the cart as it is.
func (s *CartService) RemoveItem(ctx context.Context, userID primitive.ObjectID, itemID string) (*models.Cart, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if iid, err := primitive.ObjectIDFromHex(itemID); err == nil {
		if i := cart.FindItem(iid); i >= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		}
	}
	return s.save(ctx, cart)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return s.save(ctx, cart)
}

// Empty clears the cart after checkout. A user without a cart is fine.
func (s *CartService) Empty(ctx context.Context, userID primitive.ObjectID) error {
	defer s.invalidate(ctx, userID)
	if err := s.carts.Clear(ctx, userID, s.clock.Now()); err != nil {
		return apperror.Internal(err, "Server error")
	}
	return nil
}

func (s *CartService) existing(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "Cart not found")
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.Recalculate()
	cart.UpdatedAt = s.clock.Now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	s.invalidate(ctx, cart.UserID)
	return cart, nil
}

func (s *CartService) invalidate(ctx context.Context, userID primitive.ObjectID) {
	s.genMu.Lock()
	s.gens[userID]++
	s.genMu.Unlock()

	ctx, cancel := context.WithTimeout(detached(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "cart cache invalidate failed", "user_id", userID.Hex(), "error", err)
	}
}
