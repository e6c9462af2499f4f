package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/apperror"
	"storefront/auth"
	"storefront/cache"
	"storefront/clock"
	"storefront/events"
	"storefront/middleware"
	"storefront/models"
	"storefront/pricing"
	"storefront/repository"
	"storefront/services"
)

// Controller serves the REST API on top of the services.
type Controller struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Carts    *services.CartService
	Orders   *services.OrderService
	Admin    *services.AdminService
	Logger   *slog.Logger
}

// Deps are the collaborators New wires the services from.
type Deps struct {
	Store     *repository.Store
	Cache     cache.CartCache
	Publisher events.Publisher
	Tokens    *auth.TokenManager
	Rules     pricing.Rules
	Mode      services.PricingMode
	Clock     clock.Clock
	Logger    *slog.Logger
}

func New(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	carts := services.NewCartService(d.Store.Carts, d.Store.Products, d.Cache, d.Clock, d.Logger)
	return &Controller{
		Auth:     services.NewAuthService(d.Store.Users, d.Store.Tokens, d.Tokens, d.Clock),
		Products: services.NewProductService(d.Store.Products, d.Clock),
		Carts:    carts,
		Orders: services.NewOrderService(d.Store.Orders, d.Store.Products, carts, services.OrderServiceConfig{
			Rules:     d.Rules,
			Mode:      d.Mode,
			Publisher: d.Publisher,
			Clock:     d.Clock,
			Logger:    d.Logger,
		}),
		Admin:  services.NewAdminService(d.Store, d.Clock),
		Logger: d.Logger,
	}
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags "orderstatus" and
// "role" on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		})
	})
}

func ok(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func (ctl *Controller) fail(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		ctl.Logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
	}
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{"success": false, "message": appErr.Message})
}

// bind decodes the JSON body into dst and reports binding failures as
// validation errors naming the offending fields.
func (ctl *Controller) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		ctl.fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("Invalid input")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "orderstatus":
		return "Invalid order status"
	case "role":
		return "Invalid role"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// actor returns the authenticated caller. Routes using it sit behind
// AuthMiddleware.
func (ctl *Controller) actor(c *gin.Context) (models.Actor, bool) {
	actor, found := middleware.CurrentActor(c)
	if !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token required"})
	}
	return actor, found
}
