package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperror"
	"storefront/clock"
	"storefront/models"
	"storefront/repository"
)

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	Image       string
	Rating      float64
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperror.Validation("Product name is required")
	case strings.TrimSpace(in.Description) == "":
		return apperror.Validation("Product description is required")
	case strings.TrimSpace(in.Category) == "":
		return apperror.Validation("Product category is required")
	case in.Price < 0:
		return apperror.Validation("Price must not be negative")
	case in.Stock < 0:
		return apperror.Validation("Stock must not be negative")
	case in.Rating < 0 || in.Rating > 5:
		return apperror.Validation("Rating must be between 0 and 5")
	}
	return nil
}

type ProductService struct {
	products repository.ProductRepository
	clock    clock.Clock
}

func NewProductService(products repository.ProductRepository, clk clock.Clock) *ProductService {
	if clk == nil {
		clk = clock.Real()
	}
	return &ProductService{products: products, clock: clk}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	product := &models.Product{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Image:       in.Image,
		Rating:      in.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, productID string) (*models.Product, error) {
	oid, err := ParseID(productID, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	return product, nil
}

// Update changes only the supplied fields.
func (s *ProductService) Update(ctx context.Context, productID string, update models.ProductUpdate) (*models.Product, error) {
	oid, err := ParseID(productID, "product")
	if err != nil {
		return nil, err
	}
	switch {
	case update.Name != nil && strings.TrimSpace(*update.Name) == "":
		return nil, apperror.Validation("Product name must not be empty")
	case update.Price != nil && *update.Price < 0:
		return nil, apperror.Validation("Price must not be negative")
	case update.Stock != nil && *update.Stock < 0:
		return nil, apperror.Validation("Stock must not be negative")
	case update.Rating != nil && (*update.Rating < 0 || *update.Rating > 5):
		return nil, apperror.Validation("Rating must be between 0 and 5")
	}

	product, err := s.products.Update(ctx, oid, update, s.clock.Now())
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, productID string) error {
	oid, err := ParseID(productID, "product")
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, oid); err != nil {
		return storeErr(err, "Product not found")
	}
	return nil
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	n, err := s.products.Count(ctx)
	if err != nil {
		return 0, apperror.Internal(err, "Server error")
	}
	return n, nil
}
