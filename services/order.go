package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperror"
	"storefront/clock"
	"storefront/events"
	"storefront/models"
	"storefront/pricing"
	"storefront/repository"
)

// PricingMode selects who computes order prices.
type PricingMode string

const (
	// PricingServer re-snapshots items from the catalog and recomputes
	// every price field.
	PricingServer PricingMode = "server"
	// PricingClient stores item snapshots and prices as the client sent them.
	PricingClient PricingMode = "client"
)

type OrderItemInput struct {
	Product  string
	Name     string
	Quantity int
	Price    float64
	Image    string
}

type PlaceOrderInput struct {
	OrderItems      []OrderItemInput
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ItemsPrice      float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
}

// StatusUpdate is an admin change to an order. Nil fields are left as
// they are.
type StatusUpdate struct {
	OrderStatus *models.OrderStatus
	IsPaid      *bool
}

type OrderList struct {
	Orders      []models.Order `json:"orders"`
	Count       int            `json:"count"`
	TotalAmount float64        `json:"totalAmount"`
}

// CartEmptier clears a user's cart once an order has been placed.
type CartEmptier interface {
	Empty(ctx context.Context, userID primitive.ObjectID) error
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	carts     CartEmptier
	publisher events.Publisher
	rules     pricing.Rules
	mode      PricingMode
	clock     clock.Clock
	logger    *slog.Logger
}

type OrderServiceConfig struct {
	Rules     pricing.Rules
	Mode      PricingMode
	Publisher events.Publisher
	Clock     clock.Clock
	Logger    *slog.Logger
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository,
	carts CartEmptier, cfg OrderServiceConfig) *OrderService {
	if cfg.Mode == "" {
		cfg.Mode = PricingServer
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		publisher: cfg.Publisher,
		rules:     cfg.Rules,
		mode:      cfg.Mode,
		clock:     cfg.Clock,
		logger:    loggerOrDefault(cfg.Logger),
	}
}

type reservation struct {
	product  *models.Product
	quantity int
}

// Place creates an order for the actor. Every line is checked against live
// stock before any stock is taken; stock is then taken line by line with a
// guarded decrement, and all of it is given back if any line loses a race
// or the order cannot be stored.
func (s *OrderService) Place(ctx context.Context, actor models.Actor, in PlaceOrderInput) (*models.Order, error) {
	if len(in.OrderItems) == 0 {
		return nil, apperror.Validation("No order items")
	}

	reservations := make([]reservation, 0, len(in.OrderItems))
	for _, item := range in.OrderItems {
		pid, err := ParseID(item.Product, "product")
		if err != nil {
			return nil, err
		}
		if item.Quantity < 1 {
			return nil, apperror.Validation("Quantity must be at least 1")
		}
		product, err := s.products.FindByID(ctx, pid)
		if err != nil {
			return nil, storeErr(err, "Product not found: "+itemLabel(item))
		}
		if product.Stock < item.Quantity {
			return nil, apperror.InsufficientStock("Insufficient stock for %s", product.Name)
		}
		reservations = append(reservations, reservation{product: product, quantity: item.Quantity})
	}

	now := s.clock.Now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          actor.UserID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		OrderStatus:     models.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.price(order, in, reservations)

	taken := 0
	for _, r := range reservations {
		if err := s.products.DecrementStock(ctx, r.product.ID, r.quantity); err != nil {
			s.release(ctx, reservations[:taken])
			if errors.Is(err, repository.ErrStockConflict) {
				return nil, apperror.InsufficientStock("Insufficient stock for %s", r.product.Name)
			}
			return nil, apperror.Internal(err, "Server error")
		}
		taken++
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, reservations)
		return nil, apperror.Internal(err, "Server error")
	}

	if err := s.carts.Empty(ctx, actor.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			"order_id", order.ID.Hex(), "user_id", actor.UserID.Hex(), "error", err)
	}
	s.publish(ctx, events.TypeOrderPlaced, order)
	return order, nil
}

func itemLabel(item OrderItemInput) string {
	if item.Name != "" {
		return item.Name
	}
	return item.Product
}

func (s *OrderService) price(order *models.Order, in PlaceOrderInput, reservations []reservation) {
	order.OrderItems = make([]models.OrderItem, 0, len(reservations))
	if s.mode == PricingClient {
		for i, item := range in.OrderItems {
			order.OrderItems = append(order.OrderItems, models.OrderItem{
				ProductID: reservations[i].product.ID,
				Name:      item.Name,
				Price:     item.Price,
				Image:     item.Image,
				Quantity:  item.Quantity,
			})
		}
		order.ItemsPrice = in.ItemsPrice
		order.TaxPrice = in.TaxPrice
		order.ShippingPrice = in.ShippingPrice
		order.TotalPrice = in.TotalPrice
		return
	}

	for _, r := range reservations {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ProductID: r.product.ID,
			Name:      r.product.Name,
			Price:     r.product.Price,
			Image:     r.product.Image,
			Quantity:  r.quantity,
		})
	}
	quote := s.rules.Quote(order.Lines())
	order.ItemsPrice = quote.ItemsPrice
	order.TaxPrice = quote.TaxPrice
	order.ShippingPrice = quote.ShippingPrice
	order.TotalPrice = quote.TotalPrice
}

// release gives back stock taken for reservations.
func (s *OrderService) release(ctx context.Context, reservations []reservation) {
	ctx = detached(ctx)
	for _, r := range reservations {
		if err := s.products.IncrementStock(ctx, r.product.ID, r.quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back stock",
				"product_id", r.product.ID.Hex(), "quantity", r.quantity, "error", err)
		}
	}
}

// Mine returns the actor's orders, newest first.
func (s *OrderService) Mine(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return orders, nil
}

// Get returns an order the actor owns, or any order for an admin.
func (s *OrderService) Get(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperror.Forbidden("Not authorized to view this order")
	}
	return order, nil
}

// List returns every order, newest first, with the sum of their totals.
func (s *OrderService) List(ctx context.Context) (*OrderList, error) {
	orders, err := s.orders.List(ctx, 0)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	amounts := make([]float64, 0, len(orders))
	for _, o := range orders {
		amounts = append(amounts, o.TotalPrice)
	}
	return &OrderList{Orders: orders, Count: len(orders), TotalAmount: pricing.Sum(amounts...)}, nil
}

// UpdateStatus applies an admin change. A delivered order accepts no
// further status change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, in StatusUpdate) (*models.Order, error) {
	if in.OrderStatus == nil && in.IsPaid == nil {
		return nil, apperror.Validation("Nothing to update")
	}
	if in.OrderStatus != nil && !in.OrderStatus.Valid() {
		return nil, apperror.Validation("Invalid order status")
	}

	current, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var guard models.OrderStatus
	if in.OrderStatus != nil {
		if current.OrderStatus.IsTerminal() {
			return nil, apperror.Conflict("Order already delivered")
		}
		guard = models.OrderStatusDelivered
	}

	now := s.clock.Now()
	update := models.OrderUpdate{OrderStatus: in.OrderStatus, UpdatedAt: now}
	if in.OrderStatus != nil && *in.OrderStatus == models.OrderStatusDelivered {
		delivered := true
		update.IsDelivered = &delivered
		update.DeliveredAt = &now
	}
	if in.IsPaid != nil {
		update.IsPaid = in.IsPaid
		if *in.IsPaid {
			update.PaidAt = &now
		}
	}

	order, err := s.orders.Update(ctx, current.ID, update, guard)
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, apperror.Conflict("Order already delivered")
	}
	if err != nil {
		return nil, storeErr(err, "Order not found")
	}

	if in.OrderStatus != nil {
		s.publish(ctx, events.TypeOrderStatusChanged, order)
	}
	return order, nil
}

// VerifyPayment records a payment result reported for the order by its
// owner or an admin. The result is stored as supplied.
func (s *OrderService) VerifyPayment(ctx context.Context, actor models.Actor, orderID, paymentID, status string) (*models.Order, error) {
	paymentID = strings.TrimSpace(paymentID)
	status = strings.TrimSpace(status)
	if paymentID == "" || status == "" {
		return nil, apperror.Validation("Payment id and status are required")
	}

	current, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(current.UserID) {
		return nil, apperror.Forbidden("Not authorized to update this order")
	}

	now := s.clock.Now()
	info := models.PaymentInfo{ID: paymentID, Status: status, PaidAt: current.PaymentInfo.PaidAt}
	if status == models.PaymentCompleted {
		info.PaidAt = &now
	}

	order, err := s.orders.Update(ctx, current.ID, models.OrderUpdate{PaymentInfo: &info, UpdatedAt: now}, "")
	if err != nil {
		return nil, storeErr(err, "Order not found")
	}
	s.publish(ctx, events.TypeOrderPaymentUpdated, order)
	return order, nil
}

// Delete removes an order outright. Stock is not returned.
func (s *OrderService) Delete(ctx context.Context, orderID string) error {
	oid, err := ParseID(orderID, "order")
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, oid); err != nil {
		return storeErr(err, "Order not found")
	}
	return nil
}

func (s *OrderService) find(ctx context.Context, orderID string) (*models.Order, error) {
	oid, err := ParseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Order not found")
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	event := events.New(eventType, order.ID.Hex(), order.UserID.Hex(), order.OrderStatus.String(),
		order.TotalPrice, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order event",
			"event_type", eventType, "order_id", order.ID.Hex(), "error", err)
	}
}
