package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Stock       int                `bson:"stock" json:"stock"`
	Image       string             `bson:"image" json:"image"`
	Rating      float64            `bson:"rating" json:"rating"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	Keyword   string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

// Matches reports whether p satisfies every constraint in f. Keyword matching
// is a case-insensitive substring match over name and description.
func (f ProductFilter) Matches(p Product) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(p.Name), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	return true
}

// ProductUpdate carries a partial product edit; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	Image       *string  `json:"image"`
	Rating      *float64 `json:"rating" binding:"omitempty,min=0,max=5"`
}

// Apply copies the supplied fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
}
