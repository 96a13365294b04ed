package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderPostsLineItems(t *testing.T) {
	var gotBody OrderInput
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/carts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id":1001,"userId":3,"date":"2026-08-31T00:00:00Z","products":[{"productId":5,"quantity":2}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.CatalogConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	order, err := client.PlaceOrder(context.Background(), OrderInput{
		UserID:    3,
		Date:      "2026-08-31T00:00:00Z",
		LineItems: []LineItem{{ProductID: 5, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 1001, order.ID)
	require.Equal(t, 3, gotBody.UserID)
	require.Equal(t, []LineItem{{ProductID: 5, Quantity: 2}}, gotBody.LineItems)
}

func TestPlaceOrderFailureIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.CatalogConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	_, err := client.PlaceOrder(context.Background(), OrderInput{UserID: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeDependency, typed.Code())
}
