package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperror"
	"storefront/models"
)

func validProduct() ProductInput {
	return ProductInput{Name: "Desk", Description: "Oak desk", Price: 320, Category: "furniture", Stock: 4}
}

func TestProductCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(*ProductInput){
		"missing name":     func(in *ProductInput) { in.Name = " " },
		"missing category": func(in *ProductInput) { in.Category = "" },
		"negative price":   func(in *ProductInput) { in.Price = -1 },
		"negative stock":   func(in *ProductInput) { in.Stock = -1 },
		"rating too high":  func(in *ProductInput) { in.Rating = 6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validProduct()
			mutate(&in)
			_, err := f.products.Create(ctx, in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	p, err := f.products.Create(ctx, validProduct())
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), p.CreatedAt)

	got, err := f.products.Get(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Desk", got.Name)
}

func TestProductListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, in := range []ProductInput{
		{Name: "Oak Desk", Description: "solid", Price: 300, Category: "furniture", Stock: 1, Rating: 4},
		{Name: "Lamp", Description: "desk lamp", Price: 40, Category: "lighting", Stock: 1, Rating: 3},
		{Name: "Chair", Description: "office", Price: 120, Category: "furniture", Stock: 1, Rating: 5},
	} {
		_, err := f.products.Create(ctx, in)
		require.NoError(t, err)
	}

	products, err := f.products.List(ctx, models.ProductFilter{Keyword: "DESK"})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	minPrice, minRating := 100.0, 4.5
	products, err = f.products.List(ctx, models.ProductFilter{Category: "furniture", MinPrice: &minPrice, MinRating: &minRating})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Chair", products[0].Name)

	n, err := f.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestProductUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.products.Create(ctx, validProduct())
	require.NoError(t, err)

	stock := 0
	updated, err := f.products.Update(ctx, p.ID.Hex(), models.ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Desk", updated.Name)

	negative := -5.0
	_, err = f.products.Update(ctx, p.ID.Hex(), models.ProductUpdate{Price: &negative})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.products.Update(ctx, primitive.NewObjectID().Hex(), models.ProductUpdate{Stock: &stock})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, f.products.Delete(ctx, p.ID.Hex()))
	assert.ErrorIs(t, f.products.Delete(ctx, p.ID.Hex()), apperror.ErrNotFound)
	_, err = f.products.Get(ctx, p.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
