package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/morgandigital36/pos-minimarket-umkm/internal/catalog"
	"github.com/morgandigital36/pos-minimarket-umkm/internal/resilience"
)

// REST talks JSON over HTTP to the platform. Read paths go through a
// retrying circuit-breaker client; sale submission is sent exactly once.
type REST struct {
	baseURL string
	apiKey  string
	read    resilience.HTTPClient
	submit  resilience.HTTPClient
}

// RESTConfig groups REST client construction parameters.
type RESTConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	RetryBase   time.Duration
	MaxAttempts int
	Jitter      float64
	Breaker     *resilience.Breaker
}

// NewREST constructs a platform REST client.
func NewREST(cfg RESTConfig) (*REST, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("platform: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("platform: invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &REST{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		read: resilience.HTTPClient{
			Client:      httpClient,
			Breaker:     cfg.Breaker,
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: maxAttempts,
			Jitter:      cfg.Jitter,
		},
		submit: resilience.HTTPClient{
			Client:      httpClient,
			Breaker:     cfg.Breaker,
			MaxAttempts: 1,
		},
	}, nil
}

type productRow struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
	IsActive bool   `json:"is_active"`
}

// LookupProduct implements Client and catalog.Source.
func (c *REST) LookupProduct(ctx context.Context, query string) (catalog.Product, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return catalog.Product{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/functions/v1/product-lookup", bytes.NewReader(body))
	if err != nil {
		return catalog.Product{}, err
	}
	resp, err := c.read.Do(ctx, req)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product lookup: %w", err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return catalog.Product{}, catalog.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return catalog.Product{}, ErrUnauthorized
	default:
		return catalog.Product{}, fmt.Errorf("product lookup: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data productRow `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return catalog.Product{}, fmt.Errorf("product lookup: decode response: %w", err)
	}
	row := payload.Data
	return catalog.Product{
		ID:       row.ID,
		SKU:      row.SKU,
		Barcode:  row.Barcode,
		Name:     row.Name,
		Price:    row.Price,
		Unit:     row.Unit,
		Category: row.Category,
		Stock:    row.Stock,
		Active:   row.IsActive,
	}, nil
}

// SubmitSale implements Client. The request is sent at most once.
func (c *REST) SubmitSale(ctx context.Context, saleReq SaleRequest) (SaleResult, error) {
	body, err := json.Marshal(saleReq)
	if err != nil {
		return SaleResult{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/functions/v1/process-sale", bytes.NewReader(body))
	if err != nil {
		return SaleResult{}, err
	}
	resp, err := c.submit.Do(ctx, req)
	if err != nil {
		return SaleResult{}, fmt.Errorf("submit sale: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return SaleResult{}, ErrUnauthorized
		}
		return SaleResult{}, fmt.Errorf("submit sale: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data struct {
			SaleID        string    `json:"sale_id"`
			InvoiceNumber string    `json:"invoice_number"`
			CompletedAt   time.Time `json:"completed_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SaleResult{}, fmt.Errorf("submit sale: decode response: %w", err)
	}
	return SaleResult{
		SaleID:        payload.Data.SaleID,
		InvoiceNumber: payload.Data.InvoiceNumber,
		CompletedAt:   payload.Data.CompletedAt,
	}, nil
}

// FetchSettings implements Client.
func (c *REST) FetchSettings(ctx context.Context) (Settings, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/store_settings", nil)
	if err != nil {
		return Settings{}, err
	}
	resp, err := c.read.Do(ctx, req)
	if err != nil {
		return Settings{}, fmt.Errorf("fetch settings: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return Settings{}, fmt.Errorf("fetch settings: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data struct {
			StoreName     string `json:"store_name"`
			StoreAddress  string `json:"store_address"`
			StorePhone    string `json:"store_phone"`
			TaxRate       int    `json:"tax_rate"`
			ReceiptFooter string `json:"receipt_footer"`
			CurrencyCode  string `json:"currency_code"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Settings{}, fmt.Errorf("fetch settings: decode response: %w", err)
	}
	return Settings{
		StoreName:     payload.Data.StoreName,
		StoreAddress:  payload.Data.StoreAddress,
		StorePhone:    payload.Data.StorePhone,
		TaxRate:       payload.Data.TaxRate,
		ReceiptFooter: payload.Data.ReceiptFooter,
		CurrencyCode:  payload.Data.CurrencyCode,
	}, nil
}

// ActiveCashSession implements Client.
func (c *REST) ActiveCashSession(ctx context.Context, cashierID string) (CashSession, error) {
	path := "/rest/v1/cash_sessions/active?cashier_id=" + url.QueryEscape(cashierID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return CashSession{}, err
	}
	resp, err := c.read.Do(ctx, req)
	if err != nil {
		return CashSession{}, fmt.Errorf("active cash session: %w", err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return CashSession{}, ErrNoOpenSession
	default:
		return CashSession{}, fmt.Errorf("active cash session: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data struct {
			ID             string    `json:"id"`
			CashierID      string    `json:"cashier_id"`
			OpeningBalance int64     `json:"opening_balance"`
			OpenedAt       time.Time `json:"opened_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CashSession{}, fmt.Errorf("active cash session: decode response: %w", err)
	}
	return CashSession{
		ID:             payload.Data.ID,
		CashierID:      payload.Data.CashierID,
		OpeningBalance: payload.Data.OpeningBalance,
		OpenedAt:       payload.Data.OpenedAt,
	}, nil
}

// CurrentUser implements Client.
func (c *REST) CurrentUser(ctx context.Context, token string) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	resp, err := c.read.Do(ctx, req)
	if err != nil {
		return User{}, fmt.Errorf("current user: %w", err)
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return User{}, ErrUnauthorized
	default:
		return User{}, fmt.Errorf("current user: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, fmt.Errorf("current user: decode response: %w", err)
	}
	return User{
		ID:    payload.Data.ID,
		Name:  payload.Data.Name,
		Email: payload.Data.Email,
		Role:  payload.Data.Role,
	}, nil
}

func (c *REST) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	return req, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
