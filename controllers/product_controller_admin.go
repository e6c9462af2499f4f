package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       *float64 `json:"price" binding:"required,min=0"`
	Category    string   `json:"category" binding:"required"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
	Image       string   `json:"image"`
	Rating      float64  `json:"rating" binding:"min=0,max=5"`
}

func (ctl *Controller) CreateProduct(c *gin.Context) {
	var input productRequest
	if !ctl.bind(c, &input) {
		return
	}

	product, err := ctl.Products.Create(c.Request.Context(), services.ProductInput{
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Category:    input.Category,
		Stock:       *input.Stock,
		Image:       input.Image,
		Rating:      input.Rating,
	})
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
}

func (ctl *Controller) UpdateProduct(c *gin.Context) {
	var input models.ProductUpdate
	if !ctl.bind(c, &input) {
		return
	}

	product, err := ctl.Products.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (ctl *Controller) DeleteProduct(c *gin.Context) {
	if err := ctl.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetProductsAdmin lists the whole catalog without filters.
func (ctl *Controller) GetProductsAdmin(c *gin.Context) {
	products, err := ctl.Products.List(c.Request.Context(), models.ProductFilter{})
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(products), "products": products})
}
