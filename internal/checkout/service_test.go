package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	"github.com/shopstudy/shopstudy-backend/internal/currency"
	"github.com/shopstudy/shopstudy-backend/internal/orders"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/kv"
	"github.com/shopstudy/shopstudy-backend/pkg/metrics"
	"github.com/stretchr/testify/require"
)

type stubPlacer struct {
	order orders.Order
	err   error
	got   orders.OrderInput
	calls int
}

func (s *stubPlacer) PlaceOrder(_ context.Context, input orders.OrderInput) (orders.Order, error) {
	s.calls++
	s.got = input
	if s.err != nil {
		return orders.Order{}, s.err
	}
	return s.order, nil
}

type stubRates struct{}

func (stubRates) LatestRates(context.Context, string) (currency.RateTable, error) {
	return currency.RateTable{"EUR": 0.85}, nil
}

type fixture struct {
	store     *userstore.Store
	projector *session.Projector
	placer    *stubPlacer
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := userstore.NewStore(userstore.StoreParams{
		KV:      kv.NewMemory(),
		Metrics: metrics.NewStoreMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	rates, err := currency.NewService(currency.ServiceParams{
		Client:  stubRates{},
		Metrics: metrics.NewCurrencyMetrics(prometheus.NewRegistry()),
		TTL:     time.Hour,
	})
	require.NoError(t, err)

	projector, err := session.NewProjector(session.ProjectorParams{Store: store, Rates: rates})
	require.NoError(t, err)

	placer := &stubPlacer{order: orders.Order{ID: 1001}}
	service, err := NewService(ServiceParams{
		Store:     store,
		Projector: projector,
		Placer:    placer,
		Clock:     func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &fixture{store: store, projector: projector, placer: placer, service: service}
}

func (f *fixture) loginWithCart(t *testing.T) userstore.UserRecord {
	t.Helper()
	ctx := context.Background()
	user, err := f.store.CreateUser(ctx, "ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.store.AddToCart(ctx, catalog.Product{ID: 5, Title: "lamp", Price: decimal.NewFromInt(50)}, 2, user.ID))
	require.NoError(t, f.projector.Login(ctx, user.ID))
	return user
}

func TestCheckoutRecordsPurchaseAndSyncsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.loginWithCart(t)

	purchase, err := f.service.Checkout(ctx, Input{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, 1001, purchase.OrderID)
	require.True(t, purchase.TotalAmount.Equal(decimal.NewFromInt(100)))
	require.Equal(t, "USD", purchase.Currency)

	require.Equal(t, user.ID, f.placer.got.UserID)
	require.Equal(t, "2026-08-31", f.placer.got.Date)
	require.Equal(t, []orders.LineItem{{ProductID: 5, Quantity: 2}}, f.placer.got.LineItems)

	snap := f.projector.Snapshot()
	require.Zero(t, snap.CartItemCount)
	require.True(t, snap.TotalAmountSpent.Equal(decimal.NewFromInt(100)))

	stored, err := f.store.User(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, stored.CurrentCart)
	require.Len(t, stored.PurchaseHistory, 1)
}

func TestCheckoutEmptyCartIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.store.CreateUser(ctx, "ada", "ada@example.com")
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, Input{UserID: user.ID})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	require.Equal(t, 0, f.placer.calls)
}

func TestCheckoutUnknownUserIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Checkout(context.Background(), Input{UserID: 42})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCheckoutOrderFailureLeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.loginWithCart(t)
	f.placer.err = pkgerrors.New(pkgerrors.CodeDependency, "order endpoint returned status 500")

	_, err := f.service.Checkout(ctx, Input{UserID: user.ID})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	stored, err := f.store.User(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.CurrentCart, 1)
	require.Empty(t, stored.PurchaseHistory)
}

func TestCheckoutGiftFansOutToRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.loginWithCart(t)
	recipient, err := f.store.CreateUser(ctx, "grace", "grace@example.com")
	require.NoError(t, err)

	purchase, err := f.service.Checkout(ctx, Input{
		UserID:    user.ID,
		IsGift:    true,
		Recipient: &userstore.Recipient{ID: recipient.ID, Username: recipient.Username, Email: recipient.Email},
		Message:   "enjoy",
	})
	require.NoError(t, err)
	require.True(t, purchase.IsGift)
	require.NotNil(t, purchase.GiftRecipient)

	gotRecipient, err := f.store.User(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, gotRecipient.GiftsReceived, 1)
	require.Equal(t, "enjoy", gotRecipient.GiftsReceived[0].Message)
}

func TestCheckoutHonorsCancellationDuringProcessing(t *testing.T) {
	f := newFixture(t)
	user := f.loginWithCart(t)

	slow, err := NewService(ServiceParams{
		Store:     f.store,
		Projector: f.projector,
		Placer:    f.placer,
		Delay:     time.Minute,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = slow.Checkout(ctx, Input{UserID: user.ID})
	require.Error(t, err)
	require.Equal(t, 0, f.placer.calls)
}
