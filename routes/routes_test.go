package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/auth"
	"storefront/controllers"
	"storefront/pricing"
	"storefront/repository"
	"storefront/repository/memstore"
	"storefront/services"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.Store
	ctl    *controllers.Controller
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctl := controllers.New(controllers.Deps{
		Store:  store,
		Tokens: auth.NewTokenManager("routes-test", time.Hour, nil),
		Rules:  pricing.DefaultRules(),
		Mode:   services.PricingServer,
		Logger: logger,
	})
	return &testAPI{t: t, router: NewRouter(ctl, logger, 5*time.Second), store: store, ctl: ctl}
}

func (a *testAPI) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (a *testAPI) register(name, email string) (token, id string) {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret1", "role": "admin",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	assert.Equal(a.t, "user", user["role"], "registration never grants admin")
	return body["token"].(string), user["id"].(string)
}

func (a *testAPI) admin() (token, id string) {
	a.t.Helper()
	_, err := a.ctl.Auth.EnsureAdmin(context.Background(), services.RegisterInput{
		Name: "Root", Email: "root@example.com", Password: "rootpass",
	})
	require.NoError(a.t, err)
	status, body := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "root@example.com", "password": "rootpass"})
	require.Equal(a.t, http.StatusOK, status, body)
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func (a *testAPI) product(adminToken, name string, price float64, stock int) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/products", adminToken, gin.H{
		"name": name, "description": name + " description", "price": price, "category": "test", "stock": stock,
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	return body["product"].(map[string]any)["id"].(string)
}

func (a *testAPI) stock(id string) float64 {
	a.t.Helper()
	status, body := a.do(http.MethodGet, "/api/products/"+id, "", nil)
	require.Equal(a.t, http.StatusOK, status)
	return body["product"].(map[string]any)["stock"].(float64)
}

func orderPayload(productID string, qty int) gin.H {
	return gin.H{
		"orderItems": []gin.H{{"product": productID, "name": "item", "quantity": qty, "price": 1}},
		"shippingAddress": gin.H{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US", "phone": "555",
		},
		"paymentMethod": "card",
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	status, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()
	userToken, _ := api.register("Ada", "ada@example.com")
	productID := api.product(adminToken, "Lamp", 100, 5)

	status, body := api.do(http.MethodPost, "/api/cart", userToken, gin.H{"productId": productID, "quantity": 2})
	require.Equal(t, http.StatusOK, status, body)
	status, body = api.do(http.MethodPost, "/api/cart", userToken, gin.H{"productId": productID, "quantity": 1})
	require.Equal(t, http.StatusOK, status, body)
	cart := body["cart"].(map[string]any)
	assert.Len(t, cart["items"], 1)
	assert.Equal(t, 300.0, cart["totalPrice"])

	status, body = api.do(http.MethodPost, "/api/cart", userToken, gin.H{"productId": productID, "quantity": 9})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock", body["message"])

	status, body = api.do(http.MethodPost, "/api/orders", userToken, orderPayload(productID, 3))
	require.Equal(t, http.StatusCreated, status, body)
	order := body["order"].(map[string]any)
	assert.Equal(t, "Pending", order["orderStatus"])
	assert.Equal(t, 300.0, order["itemsPrice"])
	assert.Equal(t, 830.0, order["totalPrice"])
	assert.Equal(t, 2.0, api.stock(productID))

	status, body = api.do(http.MethodGet, "/api/cart", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["cart"].(map[string]any)["items"])

	status, body = api.do(http.MethodGet, "/api/orders/myorders", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, body = api.do(http.MethodPost, "/api/orders", userToken, orderPayload(productID, 3))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock for Lamp", body["message"])
	assert.Equal(t, 2.0, api.stock(productID))
}

func TestOrderAccessAndLifecycle(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()
	ownerToken, _ := api.register("Ada", "ada@example.com")
	otherToken, _ := api.register("Bob", "bob@example.com")
	productID := api.product(adminToken, "Desk", 50, 10)

	_, body := api.do(http.MethodPost, "/api/orders", ownerToken, orderPayload(productID, 1))
	orderID := body["order"].(map[string]any)["id"].(string)
	path := "/api/orders/" + orderID

	status, _ := api.do(http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodGet, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPut, path, ownerToken, gin.H{"orderStatus": "Shipped"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodPut, path, adminToken, gin.H{"orderStatus": "Teleported"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid order status", body["message"])

	status, body = api.do(http.MethodPut, path, adminToken, gin.H{"orderStatus": "Delivered"})
	require.Equal(t, http.StatusOK, status, body)
	order := body["order"].(map[string]any)
	assert.Equal(t, true, order["isDelivered"])
	assert.NotEmpty(t, order["deliveredAt"])

	status, body = api.do(http.MethodPut, path, adminToken, gin.H{"orderStatus": "Processing"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Order already delivered", body["message"])

	status, body = api.do(http.MethodPut, "/api/admin/orders/"+orderID, adminToken, gin.H{"isPaid": true})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["order"].(map[string]any)["isPaid"])

	status, body = api.do(http.MethodPut, path+"/payment", ownerToken, gin.H{"paymentId": "pay_1", "status": "Completed"})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["order"].(map[string]any)["paymentInfo"].(map[string]any)["paidAt"])

	status, body = api.do(http.MethodGet, "/api/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, 555.0, body["totalAmount"])

	status, _ = api.do(http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminSurface(t *testing.T) {
	api := newTestAPI(t)
	adminToken, adminID := api.admin()
	userToken, userID := api.register("Ada", "ada@example.com")
	api.product(adminToken, "Chair", 80, 3)

	status, body := api.do(http.MethodGet, "/api/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied: admin only", body["message"])

	status, body = api.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["totalUsers"])
	assert.Equal(t, 1.0, stats["totalProducts"])
	assert.Equal(t, 0.0, stats["totalOrders"])
	assert.Empty(t, body["recentOrders"])

	status, body = api.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	for _, u := range body["users"].([]any) {
		assert.NotContains(t, u.(map[string]any), "password")
	}

	status, body = api.do(http.MethodDelete, "/api/admin/users/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot delete yourself", body["message"])

	status, body = api.do(http.MethodPut, "/api/admin/users/"+userID, adminToken, gin.H{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid role", body["message"])

	status, body = api.do(http.MethodPut, "/api/admin/users/"+userID, adminToken, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "admin", body["user"].(map[string]any)["role"])

	status, _ = api.do(http.MethodDelete, "/api/admin/users/"+userID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRoleChangesApplyToIssuedTokens(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()
	_, bobID := api.register("Bob", "bob@example.com")
	carolToken, carolID := api.register("Carol", "carol@example.com")
	chair := api.product(adminToken, "Chair", 80, 3)

	status, _ := api.do(http.MethodPut, "/api/admin/users/"+bobID, adminToken, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, status)
	status, body := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "bob@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status, body)
	bobToken := body["token"].(string)

	status, _ = api.do(http.MethodGet, "/api/admin/stats", bobToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPut, "/api/admin/users/"+bobID, adminToken, gin.H{"role": "user"})
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodGet, "/api/admin/stats", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied: admin only", body["message"])

	status, _ = api.do(http.MethodDelete, "/api/admin/users/"+carolID, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodPost, "/api/orders", carolToken, orderPayload(chair, 1))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 3.0, api.stock(chair))
}

func TestPanicRecoveredAsEnvelope(t *testing.T) {
	api := newTestAPI(t)
	api.router.GET("/explode", func(*gin.Context) { panic("boom") })

	status, body := api.do(http.MethodGet, "/explode", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Server error", body["message"])
}

func TestAuthSession(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("Ada", "ada@example.com")

	status, body := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", body["message"])

	status, _ = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", body["user"].(map[string]any)["email"])
	assert.NotContains(t, body["user"].(map[string]any), "password")

	status, body = api.do(http.MethodPut, "/api/auth/updateprofile", token, gin.H{"name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Ada Lovelace", body["user"].(map[string]any)["name"])

	status, body = api.do(http.MethodPut, "/api/auth/updatepassword", token, gin.H{
		"currentPassword": "secret1", "newPassword": "secret2",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been blacklisted", body["message"])
}

func TestCartErrors(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("Ada", "ada@example.com")

	status, _ := api.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodDelete, "/api/cart", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cart not found", body["message"])

	status, _ = api.do(http.MethodPost, "/api/cart", token, gin.H{"productId": "bad", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/cart", token, gin.H{"productId": "bad", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProductQueries(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()
	api.product(adminToken, "Blue Lamp", 30, 1)
	api.product(adminToken, "Red Chair", 90, 1)

	status, body := api.do(http.MethodGet, "/api/products?keyword=lamp", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, body = api.do(http.MethodGet, "/api/products?minPrice=50&maxPrice=100", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, body = api.do(http.MethodGet, "/api/products?minPrice=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid minPrice", body["message"])

	status, _ = api.do(http.MethodGet, "/api/products/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/api/products", "", gin.H{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodPost, "/api/products", adminToken, gin.H{"name": "x", "price": -1})
	assert.Equal(t, http.StatusBadRequest, status)
}
