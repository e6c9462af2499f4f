package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
)

type roleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

func (ctl *Controller) GetDashboardStats(c *gin.Context) {
	dashboard, err := ctl.Admin.Stats(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": dashboard.Stats, "recentOrders": dashboard.RecentOrders})
}

func (ctl *Controller) GetUsers(c *gin.Context) {
	users, err := ctl.Admin.Users(c.Request.Context())
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (ctl *Controller) UpdateUserRole(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var body roleRequest
	if !ctl.bind(c, &body) {
		return
	}

	user, err := ctl.Admin.UpdateUserRole(c.Request.Context(), actor, c.Param("id"), models.Role(body.Role))
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "User role updated successfully", "user": user.Summary()})
}

func (ctl *Controller) DeleteUser(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	if err := ctl.Admin.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}
