package controllers

import (
	"net/http"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// ProfileShow returns the active user's full persisted record: profile,
// purchase history and gift records included.
func ProfileShow(store *userstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}
