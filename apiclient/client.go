// Package apiclient is a small HTTP client for the storefront REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/models"
)

// Error is a failed API call. Message is the server's message field.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("storefront api: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) Token() string {
	return c.token
}

type Session struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// Login authenticates and returns the session. The receiver is unchanged;
// use WithToken to make authenticated calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type ProductQuery struct {
	Keyword  string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Rating   *float64
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	for name, f := range map[string]*float64{"minPrice": q.MinPrice, "maxPrice": q.MaxPrice, "rating": q.Rating} {
		if f != nil {
			v.Set(name, fmt.Sprint(*f))
		}
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var out struct {
		Product models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

type OrderItem struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	OrderItems      []OrderItem            `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*models.Order, error) {
	var out struct {
		Order models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("storefront api: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("storefront api: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storefront api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("storefront api: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &envelope) != nil || envelope.Message == "" {
			envelope.Message = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("storefront api: decoding %s %s: %w", method, path, err)
	}
	return nil
}
