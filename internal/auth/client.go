package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// Client calls the demo API's auth endpoints. The token it returns is a
// demo artifact; nothing downstream validates it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an auth client from the catalog config, which hosts the
// auth endpoints on the same base URL.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Credentials is a username and password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credentials and returns the demo token. A non-200 status
// reads as rejected credentials.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling login endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding login response")
	}
	return payload.Token, nil
}

// RegistrationInput is the remote account creation payload.
type RegistrationInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registrationResponse struct {
	ID int `json:"id"`
}

// Register creates the account on the demo API and returns its remote id.
func (c *Client) Register(ctx context.Context, input RegistrationInput) (int, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding registration request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building registration request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling registration endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("registration endpoint returned status %d", resp.StatusCode))
	}

	var payload registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding registration response")
	}
	return payload.ID, nil
}
