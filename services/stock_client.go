package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockLine is a single product + quantity for a stock adjustment.
type StockLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// StockCollaborator adjusts inventory counts in the product service.
type StockCollaborator interface {
	ReduceStock(ctx context.Context, lines []StockLine) error
	Restock(ctx context.Context, lines []StockLine) error
}

// StockClient communicates with the product service via HTTP
type StockClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStockClient creates a new StockClient
func NewStockClient(baseURL string) *StockClient {
	return &StockClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ReduceStock decrements inventory for the given lines. It fails with
// ErrInsufficientStock when any requested quantity exceeds available stock
// and ErrProductNotFound when a product id is unknown.
func (c *StockClient) ReduceStock(ctx context.Context, lines []StockLine) error {
	if err := c.post(ctx, "/api/products/reduceStock", lines); err != nil {
		return err
	}
	log.Printf("[StockClient] Stock reduced for %d lines", len(lines))
	return nil
}

// Restock adds quantities back, compensating an aborted or refunded placement.
func (c *StockClient) Restock(ctx context.Context, lines []StockLine) error {
	if err := c.post(ctx, "/api/products/restock", lines); err != nil {
		return err
	}
	log.Printf("[StockClient] Stock restored for %d lines", len(lines))
	return nil
}

func (c *StockClient) post(ctx context.Context, path string, lines []StockLine) error {
	body, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("product service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrProductNotFound
	case http.StatusConflict, http.StatusBadRequest:
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg := errResp["error"]; msg != "" {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, msg)
		}
		return ErrInsufficientStock
	default:
		return fmt.Errorf("product service returned %d", resp.StatusCode)
	}
}
