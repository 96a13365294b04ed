package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopstudy/shopstudy-backend/internal/orders"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// Service runs checkout: place the order remotely, then record the
// purchase locally and re-sync the session. The simulated processing delay
// stands in for a payment provider round trip.
type Service struct {
	store     *userstore.Store
	projector *session.Projector
	placer    orders.Placer
	logg      *logger.Logger
	delay     time.Duration
	clock     func() time.Time
}

// ServiceParams groups the service's dependencies.
type ServiceParams struct {
	Store     *userstore.Store
	Projector *session.Projector
	Placer    orders.Placer
	Logger    *logger.Logger
	Delay     time.Duration
	Clock     func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("user store is required")
	}
	if params.Projector == nil {
		return nil, errors.New("session projector is required")
	}
	if params.Placer == nil {
		return nil, errors.New("order placer is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:     params.Store,
		projector: params.Projector,
		placer:    params.Placer,
		logg:      params.Logger,
		delay:     params.Delay,
		clock:     clock,
	}, nil
}

// Input captures one checkout attempt for the given user's current cart.
type Input struct {
	UserID    int
	IsGift    bool
	Recipient *userstore.Recipient
	Message   string
}

// Checkout places the order for the user's cart and records the purchase.
// An empty cart is a validation error. Order placement failure leaves the
// cart untouched so the user can retry.
func (s *Service) Checkout(ctx context.Context, input Input) (*userstore.PurchaseRecord, error) {
	user, err := s.store.User(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user record not found")
	}
	if len(user.CurrentCart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if err := s.simulateProcessing(ctx); err != nil {
		return nil, err
	}

	lineItems := make([]orders.LineItem, 0, len(user.CurrentCart))
	for _, item := range user.CurrentCart {
		lineItems = append(lineItems, orders.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := s.placer.PlaceOrder(ctx, orders.OrderInput{
		UserID:    user.ID,
		Date:      s.clock().Format("2006-01-02"),
		LineItems: lineItems,
	})
	if err != nil {
		return nil, err
	}

	currency := s.projector.Snapshot().Currency
	if err := s.store.CompletePurchase(ctx, userstore.PurchaseInput{
		Cart:      user.CurrentCart,
		OrderID:   order.ID,
		UserID:    user.ID,
		Currency:  currency,
		IsGift:    input.IsGift,
		Recipient: input.Recipient,
		Message:   input.Message,
	}); err != nil {
		return nil, err
	}

	if err := s.projector.Resync(ctx); err != nil {
		return nil, err
	}

	updated, err := s.store.User(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil || len(updated.PurchaseHistory) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase record missing after checkout")
	}

	purchase := updated.PurchaseHistory[len(updated.PurchaseHistory)-1]
	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "user_id": user.ID})
		s.logg.Info(lctx, "checkout completed")
	}
	return &purchase, nil
}

// simulateProcessing sleeps for the configured delay, honoring cancellation.
func (s *Service) simulateProcessing(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "checkout canceled")
	}
}
