// Package memstore is an in-memory implementation of the repository
// contracts, used for local development and tests.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/pricing"
	"storefront/repository"
)

// DB holds every collection behind a single mutex, so multi-document
// operations such as the guarded stock decrement are atomic.
type DB struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart // keyed by user id
	orders   map[primitive.ObjectID]models.Order
	users    map[primitive.ObjectID]models.User
	tokens   map[string]time.Time
	now      func() time.Time
}

func newDB(now func() time.Time) *DB {
	if now == nil {
		now = time.Now
	}
	return &DB{
		products: make(map[primitive.ObjectID]models.Product),
		carts:    make(map[primitive.ObjectID]models.Cart),
		orders:   make(map[primitive.ObjectID]models.Order),
		users:    make(map[primitive.ObjectID]models.User),
		tokens:   make(map[string]time.Time),
		now:      now,
	}
}

// New returns a Store backed by fresh in-memory collections.
func New() *repository.Store {
	return NewWithClock(nil)
}

// NewWithClock is New with an injectable time source for token expiry.
func NewWithClock(now func() time.Time) *repository.Store {
	db := newDB(now)
	return repository.NewStore(
		(*productRepo)(db),
		(*cartRepo)(db),
		(*orderRepo)(db),
		(*userRepo)(db),
		(*tokenBlacklist)(db),
		nil,
	)
}

// newestFirst orders by creation time, then by id, both descending.
func newestFirst(aCreated, bCreated time.Time, aID, bID primitive.ObjectID) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

type productRepo DB

func (r *productRepo) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) List(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := []models.Product{}
	for _, p := range r.products {
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return newestFirst(products[i].CreatedAt, products[j].CreatedAt, products[i].ID, products[j].ID)
	})
	return products, nil
}

func (r *productRepo) Update(_ context.Context, id primitive.ObjectID, update models.ProductUpdate, now time.Time) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	update.Apply(&p)
	p.UpdatedAt = now
	r.products[id] = p
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *productRepo) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.Stock < qty {
		return repository.ErrStockConflict
	}
	p.Stock -= qty
	p.UpdatedAt = r.now()
	r.products[id] = p
	return nil
}

func (r *productRepo) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = r.now()
	r.products[id] = p
	return nil
}

func (r *productRepo) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

type cartRepo DB

func copyCart(c models.Cart) models.Cart {
	items := make([]models.CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func (r *cartRepo) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = copyCart(c)
	return &c, nil
}

func (r *cartRepo) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.carts[cart.UserID]; ok {
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
	} else if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	r.carts[cart.UserID] = copyCart(*cart)
	return nil
}

func (r *cartRepo) Clear(_ context.Context, userID primitive.ObjectID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil
	}
	c.Items = []models.CartItem{}
	c.TotalPrice = 0
	c.UpdatedAt = now
	r.carts[userID] = c
	return nil
}

type orderRepo DB

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.OrderItems))
	copy(items, o.OrderItems)
	o.OrderItems = items
	return o
}

func (r *orderRepo) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.UserID == userID }, 0), nil
}

func (r *orderRepo) List(_ context.Context, limit int64) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }, limit), nil
}

func (r *orderRepo) list(keep func(models.Order) bool, limit int64) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := []models.Order{}
	for _, o := range r.orders {
		if keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return newestFirst(orders[i].CreatedAt, orders[j].CreatedAt, orders[i].ID, orders[j].ID)
	})
	if limit > 0 && int64(len(orders)) > limit {
		orders = orders[:limit]
	}
	return orders
}

func (r *orderRepo) Update(_ context.Context, id primitive.ObjectID, u models.OrderUpdate, guard models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if guard != "" && o.OrderStatus == guard {
		return nil, repository.ErrStateConflict
	}
	u.Apply(&o)
	r.orders[id] = o
	o = copyOrder(o)
	return &o, nil
}

func (r *orderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *orderRepo) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

func (r *orderRepo) TotalSales(context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	amounts := make([]float64, 0, len(r.orders))
	for _, o := range r.orders {
		amounts = append(amounts, o.TotalPrice)
	}
	return pricing.Sum(amounts...), nil
}

type userRepo DB

func (r *userRepo) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range r.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, primitive.NilObjectID) {
		return repository.ErrDuplicate
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return newestFirst(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID)
	})
	return users, nil
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userRepo) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

type tokenBlacklist DB

func (r *tokenBlacklist) Add(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = expiresAt
	return nil
}

func (r *tokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.tokens[token]
	if !ok {
		return false, nil
	}
	if !exp.After(r.now()) {
		delete(r.tokens, token)
		return false, nil
	}
	return true, nil
}
