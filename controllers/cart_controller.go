package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (ctl *Controller) AddToCart(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var body addToCartRequest
	if !ctl.bind(c, &body) {
		return
	}

	cart, err := ctl.Carts.Add(c.Request.Context(), actor.UserID, body.ProductID, body.Quantity)
	ctl.cartResponse(c, cart, err, "Item added to cart")
}

func (ctl *Controller) GetCart(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	cart, err := ctl.Carts.Get(c.Request.Context(), actor.UserID)
	ctl.cartResponse(c, cart, err, "")
}

func (ctl *Controller) UpdateCart(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var body updateCartRequest
	if !ctl.bind(c, &body) {
		return
	}

	cart, err := ctl.Carts.UpdateItem(c.Request.Context(), actor.UserID, c.Param("itemId"), body.Quantity)
	ctl.cartResponse(c, cart, err, "Cart updated")
}

func (ctl *Controller) RemoveFromCart(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	cart, err := ctl.Carts.RemoveItem(c.Request.Context(), actor.UserID, c.Param("itemId"))
	ctl.cartResponse(c, cart, err, "Item removed from cart")
}

func (ctl *Controller) ClearCart(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	cart, err := ctl.Carts.Clear(c.Request.Context(), actor.UserID)
	ctl.cartResponse(c, cart, err, "Cart cleared")
}

func (ctl *Controller) cartResponse(c *gin.Context, cart *models.Cart, err error, message string) {
	if err != nil {
		ctl.fail(c, err)
		return
	}
	body := gin.H{"cart": cart}
	if message != "" {
		body["message"] = message
	}
	ok(c, http.StatusOK, body)
}
