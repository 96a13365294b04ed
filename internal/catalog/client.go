package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// Client is a thin wrapper over the demo product API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a catalog client from the catalog config.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ListProducts fetches products, optionally limited and filtered by
// category, then applies the requested sort order locally.
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]Product, error) {
	endpoint := c.baseURL + "/products"
	if params.Category != "" {
		endpoint = c.baseURL + "/products/category/" + url.PathEscape(params.Category)
	}
	if params.Limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(params.Limit)
	}

	var products []Product
	if err := c.getJSON(ctx, endpoint, &products); err != nil {
		return nil, err
	}
	SortProducts(products, params.Sort)
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int) (Product, error) {
	var product Product
	if err := c.getJSON(ctx, fmt.Sprintf("%s/products/%d", c.baseURL, id), &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ListCategories fetches the category names the catalog knows about.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, c.baseURL+"/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building catalog request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling product catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("product catalog returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding catalog response")
	}
	return nil
}
