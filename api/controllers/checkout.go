package controllers

import (
	"net/http"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/api/validators"
	checkoutsvc "github.com/shopstudy/shopstudy-backend/internal/checkout"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

type checkoutRequest struct {
	IsGift    bool              `json:"isGift"`
	Recipient *recipientPayload `json:"recipient,omitempty"`
	Message   string            `json:"message,omitempty" validate:"max=500"`
}

type recipientPayload struct {
	ID       int    `json:"id" validate:"required,min=1"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email,omitempty"`
}

// Checkout places the order for the active user's cart and records the
// purchase, optionally as a gift.
func Checkout(svc *checkoutsvc.Service, store *userstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		user, err := requireCurrentUser(r.Context(), store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.IsGift && payload.Recipient == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gift checkout requires a recipient"))
			return
		}

		input := checkoutsvc.Input{
			UserID:  user.ID,
			IsGift:  payload.IsGift,
			Message: payload.Message,
		}
		if payload.Recipient != nil {
			input.Recipient = &userstore.Recipient{
				ID:       payload.Recipient.ID,
				Username: payload.Recipient.Username,
				Email:    payload.Recipient.Email,
			}
		}

		purchase, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}
