package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/apperror"
	"storefront/models"
)

// productFilter reads keyword, category, minPrice, maxPrice and rating from
// the query string.
func productFilter(c *gin.Context) (models.ProductFilter, error) {
	filter := models.ProductFilter{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
	}
	for _, q := range []struct {
		name string
		dst  **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
		{"rating", &filter.MinRating},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.ProductFilter{}, apperror.Validation("Invalid %s", q.name)
		}
		*q.dst = &v
	}
	return filter, nil
}

func (ctl *Controller) GetProducts(c *gin.Context) {
	filter, err := productFilter(c)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	products, err := ctl.Products.List(c.Request.Context(), filter)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(products), "products": products})
}

func (ctl *Controller) GetProduct(c *gin.Context) {
	product, err := ctl.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"product": product})
}
