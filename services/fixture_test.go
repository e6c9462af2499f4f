package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/auth"
	"storefront/clock"
	"storefront/events"
	"storefront/models"
	"storefront/pricing"
	"storefront/repository"
	"storefront/repository/memstore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	store     *repository.Store
	clock     *clock.FakeClock
	publisher *recordingPublisher
	carts     *CartService
	orders    *OrderService
	products  *ProductService
	auth      *AuthService
	admin     *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, PricingServer)
}

func newFixtureWith(t *testing.T, mode PricingMode) *fixture {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	store := memstore.NewWithClock(clk.Now)
	pub := &recordingPublisher{}
	carts := NewCartService(store.Carts, store.Products, nil, clk, nil)
	return &fixture{
		store:     store,
		clock:     clk,
		publisher: pub,
		carts:     carts,
		orders: NewOrderService(store.Orders, store.Products, carts, OrderServiceConfig{
			Rules:     pricing.DefaultRules(),
			Mode:      mode,
			Publisher: pub,
			Clock:     clk,
		}),
		products: NewProductService(store.Products, clk),
		auth:     NewAuthService(store.Users, store.Tokens, auth.NewTokenManager("test-secret", time.Hour, clk), clk),
		admin:    NewAdminService(store, clk),
	}
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.store.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func user() models.Actor {
	return models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleUser}
}

func admin() models.Actor {
	return models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}
