package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/pricing"
)

// CartItem is a line in a cart. Name, price and image are a snapshot of the
// product taken when the line was created.
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Image     string             `bson:"image" json:"image"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart is the single server-side cart owned by a user.
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user" json:"user"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// Recalculate sets TotalPrice from the current lines. It must be the last
// step of every mutation.
func (c *Cart) Recalculate() {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}
	c.TotalPrice = pricing.Subtotal(lines)
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(itemID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the line for productID, or -1.
func (c *Cart) FindProduct(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
