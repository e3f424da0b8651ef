// Package remote is the thin HTTP client for the field sales API. Each
// call attaches the bearer token read fresh from the token source, makes
// a single attempt, and propagates errors as-is. No retry, no backoff.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fieldsales/normalize"
)

// TokenSource yields the current bearer token. It is consulted on every
// request so a token refreshed in the local store takes effect
// immediately, and an empty result sends the request unauthenticated.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

// APIError carries the HTTP status and the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(data)}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// User is the authenticated user document as the API returns it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the login/register response.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Register(ctx context.Context, name, email, phone, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Customer is the customer document as the API returns it.
type Customer struct {
	ID           string `json:"id"`
	CustomerCode string `json:"customerCode"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	Zone         string `json:"zone,omitempty"`
	Province     string `json:"province,omitempty"`
	MedRepName   string `json:"medRepName,omitempty"`
}

func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.do(ctx, http.MethodGet, "/customers", nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, form Customer) (*Customer, error) {
	var created Customer
	if err := c.do(ctx, http.MethodPost, "/customers", form, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListProducts returns the raw payload; callers run it through
// normalize.ProductList since the endpoint shape has varied.
func (c *Client) ListProducts(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) CreateProduct(ctx context.Context, product normalize.ProductDoc) (*normalize.ProductDoc, error) {
	var created normalize.ProductDoc
	if err := c.do(ctx, http.MethodPost, "/products", product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}) error {
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), fields, nil)
}

// CreateSale posts a canonical sale record and returns the stored copy.
func (c *Client) CreateSale(ctx context.Context, sale normalize.SaleRecord) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/sales", sale, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// MySales returns the caller's sales in their wire shape.
func (c *Client) MySales(ctx context.Context) ([]normalize.SaleDoc, error) {
	var docs []normalize.SaleDoc
	if err := c.do(ctx, http.MethodGet, "/sales/my", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// StockAdjust is the payload for /stocks/add and /stocks/remove.
type StockAdjust struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

func (c *Client) AddStock(ctx context.Context, adjust StockAdjust) error {
	return c.do(ctx, http.MethodPost, "/stocks/add", adjust, nil)
}

func (c *Client) RemoveStock(ctx context.Context, adjust StockAdjust) error {
	return c.do(ctx, http.MethodPost, "/stocks/remove", adjust, nil)
}

func (c *Client) ListStockMovements(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/stocks", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// NamedRef is a zone or province lookup entry.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) ListZones(ctx context.Context) ([]NamedRef, error) {
	var zones []NamedRef
	if err := c.do(ctx, http.MethodGet, "/zones", nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *Client) ListProvinces(ctx context.Context) ([]NamedRef, error) {
	var provinces []NamedRef
	if err := c.do(ctx, http.MethodGet, "/provinces", nil, &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}
