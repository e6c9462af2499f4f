package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/controllers"
	"storefront/middleware"
	"storefront/models"
)

// RegisterRoutes mounts the REST API under /api and the health probe.
func RegisterRoutes(r *gin.Engine, ctl *controllers.Controller) {
	controllers.RegisterValidators()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	authn := middleware.AuthMiddleware(ctl.Auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", ctl.Register)
			authRoutes.POST("/login", ctl.Login)
			authRoutes.POST("/logout", authn, ctl.Logout)
			authRoutes.GET("/me", authn, ctl.Me)
			authRoutes.PUT("/updateprofile", authn, ctl.UpdateProfile)
			authRoutes.PUT("/updatepassword", authn, ctl.UpdatePassword)
		}

		products := api.Group("/products")
		{
			products.GET("", ctl.GetProducts)
			products.GET("/:id", ctl.GetProduct)
			products.POST("", authn, adminOnly, ctl.CreateProduct)
			products.PUT("/:id", authn, adminOnly, ctl.UpdateProduct)
			products.DELETE("/:id", authn, adminOnly, ctl.DeleteProduct)
		}

		cart := api.Group("/cart")
		cart.Use(authn)
		{
			cart.POST("", ctl.AddToCart)
			cart.GET("", ctl.GetCart)
			cart.PUT("/:itemId", ctl.UpdateCart)
			cart.DELETE("/:itemId", ctl.RemoveFromCart)
			cart.DELETE("", ctl.ClearCart)
		}

		orders := api.Group("/orders")
		orders.Use(authn)
		{
			orders.POST("", ctl.CreateOrder)
			orders.GET("/myorders", ctl.GetMyOrders)
			orders.GET("/:id", ctl.GetOrder)
			orders.PUT("/:id/payment", ctl.VerifyPayment)

			orders.GET("", adminOnly, ctl.GetOrdersAdmin)
			orders.PUT("/:id", adminOnly, ctl.UpdateOrderStatus)
			orders.DELETE("/:id", adminOnly, ctl.DeleteOrder)
		}

		admin := api.Group("/admin")
		admin.Use(authn, adminOnly)
		{
			admin.GET("/stats", ctl.GetDashboardStats)

			admin.GET("/orders", ctl.GetOrdersAdmin)
			admin.PUT("/orders/:id", ctl.UpdateOrderAdmin)
			admin.DELETE("/orders/:id", ctl.DeleteOrder)

			admin.GET("/products", ctl.GetProductsAdmin)
			admin.POST("/products", ctl.CreateProduct)
			admin.PUT("/products/:id", ctl.UpdateProduct)
			admin.DELETE("/products/:id", ctl.DeleteProduct)

			admin.GET("/users", ctl.GetUsers)
			admin.PUT("/users/:id", ctl.UpdateUserRole)
			admin.DELETE("/users/:id", ctl.DeleteUser)
		}
	}
}

// NewRouter returns an engine with recovery, request ids, request logging
// and a per-request deadline, with every route registered.
func NewRouter(ctl *controllers.Controller, logger *slog.Logger, timeout time.Duration) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger), middleware.Timeout(timeout))
	RegisterRoutes(r, ctl)
	return r
}
