package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// LineItem is a productId/quantity pair sent to the order endpoint.
type LineItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderInput is the payload for placing an order.
type OrderInput struct {
	UserID    int        `json:"userId"`
	Date      string     `json:"date"`
	LineItems []LineItem `json:"products"`
}

// Order is the demo API's order placement response. Its ID becomes the
// purchase record's order id.
type Order struct {
	ID        int        `json:"id"`
	UserID    int        `json:"userId"`
	Date      string     `json:"date"`
	LineItems []LineItem `json:"products"`
}

// Placer is the order placement surface checkout depends on.
type Placer interface {
	PlaceOrder(ctx context.Context, input OrderInput) (Order, error)
}

// Client places orders against the demo API's cart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an order client sharing the catalog's base URL.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// PlaceOrder posts the line items and returns the assigned order.
func (c *Client) PlaceOrder(ctx context.Context, input OrderInput) (Order, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding order")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/carts", bytes.NewReader(body))
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building order request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placing order")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("order endpoint returned status %d", resp.StatusCode))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding order response")
	}
	return order, nil
}
