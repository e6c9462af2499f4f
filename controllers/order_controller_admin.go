package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type orderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required,orderstatus"`
}

type adminOrderUpdateRequest struct {
	OrderStatus *string `json:"orderStatus" binding:"omitempty,orderstatus"`
	IsPaid      *bool   `json:"isPaid"`
}

func (ctl *Controller) GetOrdersAdmin(c *gin.Context) {
	list, err := ctl.Orders.List(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":       list.Count,
		"totalAmount": list.TotalAmount,
		"orders":      list.Orders,
	})
}

func (ctl *Controller) UpdateOrderStatus(c *gin.Context) {
	var body orderStatusRequest
	if !ctl.bind(c, &body) {
		return
	}

	status := models.OrderStatus(body.OrderStatus)
	order, err := ctl.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), services.StatusUpdate{OrderStatus: &status})
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// UpdateOrderAdmin changes status and/or the paid flag.
func (ctl *Controller) UpdateOrderAdmin(c *gin.Context) {
	var body adminOrderUpdateRequest
	if !ctl.bind(c, &body) {
		return
	}

	update := services.StatusUpdate{IsPaid: body.IsPaid}
	if body.OrderStatus != nil {
		status := models.OrderStatus(*body.OrderStatus)
		update.OrderStatus = &status
	}
	order, err := ctl.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Order updated successfully", "order": order})
}

func (ctl *Controller) DeleteOrder(c *gin.Context) {
	if err := ctl.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
