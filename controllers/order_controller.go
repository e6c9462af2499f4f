package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type orderItemRequest struct {
	Product  string  `json:"product" binding:"required"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"min=0"`
	Image    string  `json:"image"`
}

type shippingAddressRequest struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

type createOrderRequest struct {
	OrderItems      []orderItemRequest     `json:"orderItems" binding:"dive"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

type paymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

func (r createOrderRequest) input() services.PlaceOrderInput {
	items := make([]services.OrderItemInput, 0, len(r.OrderItems))
	for _, item := range r.OrderItems {
		items = append(items, services.OrderItemInput{
			Product:  item.Product,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Image:    item.Image,
		})
	}
	return services.PlaceOrderInput{
		OrderItems: items,
		ShippingAddress: models.ShippingAddress{
			Address:    r.ShippingAddress.Address,
			City:       r.ShippingAddress.City,
			PostalCode: r.ShippingAddress.PostalCode,
			Country:    r.ShippingAddress.Country,
			Phone:      r.ShippingAddress.Phone,
		},
		PaymentMethod: r.PaymentMethod,
		ItemsPrice:    r.ItemsPrice,
		TaxPrice:      r.TaxPrice,
		ShippingPrice: r.ShippingPrice,
		TotalPrice:    r.TotalPrice,
	}
}

func (ctl *Controller) CreateOrder(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var body createOrderRequest
	if !ctl.bind(c, &body) {
		return
	}

	order, err := ctl.Orders.Place(c.Request.Context(), actor, body.input())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

func (ctl *Controller) GetMyOrders(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	orders, err := ctl.Orders.Mine(c.Request.Context(), actor)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (ctl *Controller) GetOrder(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	order, err := ctl.Orders.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func (ctl *Controller) VerifyPayment(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var body paymentRequest
	if !ctl.bind(c, &body) {
		return
	}

	order, err := ctl.Orders.VerifyPayment(c.Request.Context(), actor, c.Param("id"), body.PaymentID, body.Status)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Payment verified successfully", "order": order})
}
