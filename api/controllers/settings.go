package controllers

import (
	"net/http"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/api/validators"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

type updateSettingsRequest struct {
	Currency string `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR TRY"`
	Language string `json:"language,omitempty" validate:"omitempty,oneof=en tr"`
}

// SettingsUpdate switches the display currency and language. Empty fields
// stay unchanged. The preference persists on the active record when one
// exists, so it survives logout.
func SettingsUpdate(projector *session.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Currency != "" {
			if err := projector.SetCurrency(r.Context(), payload.Currency); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.Language != "" {
			if err := projector.SetLanguage(r.Context(), payload.Language); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, projector.Snapshot())
	}
}
