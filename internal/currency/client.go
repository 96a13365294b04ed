package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// RateTable maps currency codes to their conversion rate against a base
// currency. All tables this package traffics in are USD-based.
type RateTable map[string]float64

// RatesClient fetches the latest conversion rates for a base currency.
type RatesClient interface {
	LatestRates(ctx context.Context, base string) (RateTable, error)
}

// Client calls the exchange rate API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an exchange rate client from config.
func NewClient(cfg config.ExchangeRateConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type latestRatesResponse struct {
	Result          string    `json:"result"`
	BaseCode        string    `json:"base_code"`
	ConversionRates RateTable `json:"conversion_rates"`
}

// LatestRates fetches the conversion table for the given base currency.
func (c *Client) LatestRates(ctx context.Context, base string) (RateTable, error) {
	endpoint := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building exchange rate request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling exchange rate api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("exchange rate api returned status %d", resp.StatusCode))
	}

	var payload latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding exchange rate response")
	}
	if payload.Result != "success" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("exchange rate api result %q", payload.Result))
	}
	return payload.ConversionRates, nil
}
