package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// User is a demo API directory entry. The gift recipient picker lists these.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Client reads the demo API's user directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a directory client sharing the catalog's base URL.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ListUsers returns every directory entry.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, c.baseURL+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a single directory entry by id.
func (c *Client) GetUser(ctx context.Context, id int) (User, error) {
	var user User
	if err := c.getJSON(ctx, fmt.Sprintf("%s/users/%d", c.baseURL, id), &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building directory request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling user directory")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("user directory returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding directory response")
	}
	return nil
}
