package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/api/validators"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID int `json:"productId" validate:"required,min=1"`
	Quantity  int `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type cartView struct {
	Items          []userstore.CartItem `json:"items"`
	TotalUnits     int                  `json:"totalUnits"`
	Total          string               `json:"total"`
	FormattedTotal string               `json:"formattedTotal"`
}

func newCartView(r *http.Request, projector *session.Projector, items []userstore.CartItem) cartView {
	if items == nil {
		items = []userstore.CartItem{}
	}
	total := userstore.CartTotal(items)
	return cartView{
		Items:          items,
		TotalUnits:     userstore.CartUnits(items),
		Total:          total.StringFixed(2),
		FormattedTotal: projector.FormatPrice(r.Context(), total),
	}
}

// CartShow returns the active user's cart with totals.
func CartShow(store *userstore.Store, projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(r, projector, user.CurrentCart))
	}
}

// CartAddItem resolves the product in the catalog and merges it into the
// cart, then re-syncs the session.
func CartAddItem(store *userstore.Store, projector *session.Projector, client Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := client.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.AddToCart(r.Context(), product, payload.Quantity, user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := projector.Resync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := store.User(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(r, projector, updated.CurrentCart))
	}
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(store *userstore.Store, projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.UpdateCartItemQuantity(r.Context(), itemID, payload.Quantity, user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := projector.Resync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := store.User(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(r, projector, updated.CurrentCart))
	}
}

// CartRemoveItem drops a line from the cart.
func CartRemoveItem(store *userstore.Store, projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item id"))
			return
		}

		if err := store.RemoveFromCart(r.Context(), itemID, user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := projector.Resync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := store.User(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(r, projector, updated.CurrentCart))
	}
}

// CartClear empties the cart.
func CartClear(store *userstore.Store, projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.ClearCart(r.Context(), user.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := projector.Resync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(r, projector, nil))
	}
}
