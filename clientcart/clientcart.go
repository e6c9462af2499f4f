// Package clientcart is the shopper-side cart kept between CLI runs and
// submitted as an order at checkout. It is not synchronized with the server
// cart.
package clientcart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront/apiclient"
	"storefront/models"
	"storefront/pricing"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrIncompleteAddress = errors.New("please fill in all shipping information")
)

// Item is one cart line with the product data shown to the shopper.
type Item struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type (
	Loader func() ([]Item, error)
	Saver  func([]Item) error
)

// OrderPlacer submits an order to the server.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req apiclient.OrderRequest) (*models.Order, error)
}

type Store struct {
	mu    sync.Mutex
	items []Item
	save  Saver
	rules pricing.Rules
}

// Open loads the cart once and returns a store that saves after every
// mutation. A nil save keeps the cart in memory only.
func Open(load Loader, save Saver) (*Store, error) {
	s := &Store{save: save, rules: pricing.DefaultRules()}
	if load != nil {
		items, err := load()
		if err != nil {
			return nil, fmt.Errorf("loading cart: %w", err)
		}
		s.items = items
	}
	return s, nil
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Add puts one unit of product in the cart.
func (s *Store) Add(product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := product.ID.Hex()
	if i := s.find(id); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, Item{
			ProductID: id,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  1,
		})
	}
	return s.persist()
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(productID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}
	return s.persist()
}

func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(productID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return s.persist()
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.persist()
}

// Total is Σ price×quantity.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.lines())
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// Quote prices the cart the way checkout will.
func (s *Store) Quote() pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Quote(s.lines())
}

// Checkout builds the order from the cart, submits it and clears the cart
// once the server accepted it.
func (s *Store) Checkout(ctx context.Context, placer OrderPlacer, address models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	s.mu.Lock()
	req, err := s.orderRequest(address, paymentMethod)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	order, err := placer.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Clear(); err != nil {
		return order, fmt.Errorf("order placed but clearing cart failed: %w", err)
	}
	return order, nil
}

func (s *Store) orderRequest(address models.ShippingAddress, paymentMethod string) (apiclient.OrderRequest, error) {
	if len(s.items) == 0 {
		return apiclient.OrderRequest{}, ErrEmptyCart
	}
	for _, field := range []string{address.Address, address.City, address.PostalCode, address.Phone} {
		if strings.TrimSpace(field) == "" {
			return apiclient.OrderRequest{}, ErrIncompleteAddress
		}
	}

	items := make([]apiclient.OrderItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, apiclient.OrderItem{
			Product:  item.ProductID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Image:    item.Image,
		})
	}
	quote := s.rules.Quote(s.lines())
	return apiclient.OrderRequest{
		OrderItems:      items,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		TotalPrice:      quote.TotalPrice,
	}, nil
}

func (s *Store) find(productID string) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(s.items))
	for _, item := range s.items {
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}
	return lines
}

func (s *Store) persist() error {
	if s.save == nil {
		return nil
	}
	if err := s.save(append([]Item(nil), s.items...)); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}
