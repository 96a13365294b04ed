package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// FavoritesList returns the active user's favorite product ids.
func FavoritesList(store *userstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		favorites := user.Favorites
		if favorites == nil {
			favorites = []int{}
		}
		responses.WriteSuccess(w, map[string]any{"productIds": favorites})
	}
}

// FavoriteToggle flips the product's favorite state and reports the result.
func FavoriteToggle(store *userstore.Store, projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := strconv.Atoi(chi.URLParam(r, "productId"))
		if err != nil || productID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		favorited, err := store.ToggleFavorite(r.Context(), productID, user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := projector.Resync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"productId": productID, "favorited": favorited})
	}
}
