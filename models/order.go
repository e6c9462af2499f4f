package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/pricing"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// OrderStatuses lists every accepted status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

func (s OrderStatus) String() string {
	return string(s)
}

// PaymentCompleted is the payment status that stamps paymentInfo.paidAt.
const PaymentCompleted = "Completed"

// OrderItem is an immutable snapshot of a purchased line, decoupled from the
// live product.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Image     string             `bson:"image" json:"image"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone" json:"phone"`
}

type PaymentInfo struct {
	ID     string     `bson:"id" json:"id"`
	Status string     `bson:"status" json:"status"`
	PaidAt *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user" json:"user"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentInfo     PaymentInfo        `bson:"paymentInfo" json:"paymentInfo"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Lines returns the order items as pricing lines.
func (o *Order) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(o.OrderItems))
	for _, item := range o.OrderItems {
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}
	return lines
}

// OrderUpdate is a status/payment mutation applied by an admin or a
// payment callback. Nil fields are left untouched.
type OrderUpdate struct {
	OrderStatus *OrderStatus
	IsPaid      *bool
	PaidAt      *time.Time
	IsDelivered *bool
	DeliveredAt *time.Time
	PaymentInfo *PaymentInfo
	UpdatedAt   time.Time
}

// Apply copies the supplied fields onto o.
func (u OrderUpdate) Apply(o *Order) {
	if u.OrderStatus != nil {
		o.OrderStatus = *u.OrderStatus
	}
	if u.IsPaid != nil {
		o.IsPaid = *u.IsPaid
	}
	if u.PaidAt != nil {
		o.PaidAt = u.PaidAt
	}
	if u.IsDelivered != nil {
		o.IsDelivered = *u.IsDelivered
	}
	if u.DeliveredAt != nil {
		o.DeliveredAt = u.DeliveredAt
	}
	if u.PaymentInfo != nil {
		o.PaymentInfo = *u.PaymentInfo
	}
	o.UpdatedAt = u.UpdatedAt
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalSales    float64 `json:"totalSales"`
	TotalOrders   int64   `json:"totalOrders"`
	TotalProducts int64   `json:"totalProducts"`
	TotalUsers    int64   `json:"totalUsers"`
}
