package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	"github.com/shopstudy/shopstudy-backend/internal/currency"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
	"github.com/shopstudy/shopstudy-backend/pkg/kv"
	"github.com/shopstudy/shopstudy-backend/pkg/metrics"
	"github.com/stretchr/testify/require"
)

type stubRates struct {
	rates currency.RateTable
	err   error
	calls int
}

func (s *stubRates) LatestRates(context.Context, string) (currency.RateTable, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

type fixture struct {
	store     *userstore.Store
	projector *Projector
	rates     *stubRates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := userstore.NewStore(userstore.StoreParams{
		KV:      kv.NewMemory(),
		Metrics: metrics.NewStoreMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	rates := &stubRates{rates: currency.RateTable{"EUR": 0.85, "TRY": 32.5}}
	svc, err := currency.NewService(currency.ServiceParams{
		Client:  rates,
		Metrics: metrics.NewCurrencyMetrics(prometheus.NewRegistry()),
		TTL:     time.Hour,
	})
	require.NoError(t, err)

	projector, err := NewProjector(ProjectorParams{Store: store, Rates: svc})
	require.NoError(t, err)
	return &fixture{store: store, projector: projector, rates: rates}
}

func (f *fixture) login(t *testing.T) userstore.UserRecord {
	t.Helper()
	user, err := f.store.CreateUser(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.projector.Login(context.Background(), user.ID))
	return user
}

func TestNewProjectorStartsLoggedOut(t *testing.T) {
	f := newFixture(t)
	snap := f.projector.Snapshot()

	require.False(t, snap.Authenticated)
	require.Nil(t, snap.User)
	require.Zero(t, snap.CartItemCount)
	require.Equal(t, string(enums.CurrencyUSD), snap.Currency)
	require.Equal(t, string(enums.LanguageEnglish), snap.Language)
}

func TestLoginProjectsPersistedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.login(t)

	snap := f.projector.Snapshot()
	require.True(t, snap.Authenticated)
	require.NotNil(t, snap.User)
	require.Equal(t, user.ID, snap.User.ID)
	require.Equal(t, 0.85, snap.ExchangeRates["EUR"])

	require.NoError(t, f.store.AddToCart(ctx, catalog.Product{ID: 7, Price: decimal.NewFromInt(10)}, 3, user.ID))
	_, err := f.store.ToggleFavorite(ctx, 7, user.ID)
	require.NoError(t, err)
	require.NoError(t, f.projector.Resync(ctx))

	snap = f.projector.Snapshot()
	require.Equal(t, 3, snap.CartItemCount)
	require.Equal(t, []int{7}, snap.FavoriteProductIDs)
}

func TestLoadCurrentUserRestoresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.store.CreateUser(ctx, "ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.store.SetCurrentUser(ctx, user.ID))

	require.NoError(t, f.projector.LoadCurrentUser(ctx))
	snap := f.projector.Snapshot()
	require.True(t, snap.Authenticated)
	require.Equal(t, user.ID, snap.User.ID)
}

func TestLogoutResetsSnapshotButKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.login(t)

	require.NoError(t, f.store.AddToCart(ctx, catalog.Product{ID: 1, Price: decimal.NewFromInt(5)}, 2, user.ID))
	require.NoError(t, f.projector.SetCurrency(ctx, string(enums.CurrencyEUR)))
	require.NoError(t, f.projector.Resync(ctx))

	require.NoError(t, f.projector.Logout(ctx))
	snap := f.projector.Snapshot()
	require.False(t, snap.Authenticated)
	require.Nil(t, snap.User)
	require.Zero(t, snap.CartItemCount)
	require.Empty(t, snap.FavoriteProductIDs)
	require.Equal(t, string(enums.CurrencyUSD), snap.Currency)
	require.Equal(t, string(enums.LanguageEnglish), snap.Language)

	kept, err := f.store.User(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	require.Len(t, kept.CurrentCart, 1)
}

func TestSubscribersObserveChangesUntilUnsubscribed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen []Snapshot
	unsubscribe := f.projector.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap)
	})

	f.login(t)
	require.Len(t, seen, 1)
	require.True(t, seen[0].Authenticated)

	unsubscribe()
	require.NoError(t, f.projector.Logout(ctx))
	require.Len(t, seen, 1)
}

func TestSetCurrencyPersistsPreference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.login(t)

	require.NoError(t, f.projector.SetCurrency(ctx, string(enums.CurrencyTRY)))
	require.Equal(t, string(enums.CurrencyTRY), f.projector.Snapshot().Currency)

	stored, err := f.store.User(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, string(enums.CurrencyTRY), stored.PreferredCurrency)

	require.Error(t, f.projector.SetCurrency(ctx, "DOGE"))
}

func TestSetCurrencyPublishesRefreshedRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t)
	require.Equal(t, 0.85, f.projector.Snapshot().ExchangeRates["EUR"])

	f.rates.rates = currency.RateTable{"EUR": 0.9, "TRY": 33.1}
	require.NoError(t, f.projector.SetCurrency(ctx, string(enums.CurrencyEUR)))

	snap := f.projector.Snapshot()
	require.Equal(t, string(enums.CurrencyEUR), snap.Currency)
	require.Equal(t, 0.9, snap.ExchangeRates["EUR"])
}

func TestResyncKeepsLastGoodRatesWhenRefreshFails(t *testing.T) {
	store, err := userstore.NewStore(userstore.StoreParams{
		KV:      kv.NewMemory(),
		Metrics: metrics.NewStoreMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	rates := &stubRates{rates: currency.RateTable{"EUR": 0.85}}
	svc, err := currency.NewService(currency.ServiceParams{
		Client:  rates,
		Metrics: metrics.NewCurrencyMetrics(prometheus.NewRegistry()),
		TTL:     time.Hour,
		Clock:   func() time.Time { return now },
	})
	require.NoError(t, err)

	projector, err := NewProjector(ProjectorParams{Store: store, Rates: svc})
	require.NoError(t, err)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, projector.Login(ctx, user.ID))
	require.Equal(t, 0.85, projector.Snapshot().ExchangeRates["EUR"])

	now = now.Add(2 * time.Hour)
	rates.err = errors.New("network down")

	require.NoError(t, projector.Resync(ctx))
	require.Equal(t, 0.85, projector.Snapshot().ExchangeRates["EUR"])
}

func TestSetCurrencySurvivesRateFetchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t)

	f.rates.err = errors.New("network down")
	require.NoError(t, f.projector.SetCurrency(ctx, string(enums.CurrencyEUR)))
	require.Equal(t, string(enums.CurrencyEUR), f.projector.Snapshot().Currency)
}

func TestSetLanguagePersistsPreference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.login(t)

	require.NoError(t, f.projector.SetLanguage(ctx, string(enums.LanguageTurkish)))
	require.Equal(t, string(enums.LanguageTurkish), f.projector.Snapshot().Language)

	stored, err := f.store.User(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, string(enums.LanguageTurkish), stored.PreferredLanguage)

	require.Error(t, f.projector.SetLanguage(ctx, "xx"))
}

func TestConvertAndFormatPriceFollowSessionCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t)

	amount := decimal.NewFromInt(100)
	require.True(t, f.projector.ConvertPrice(ctx, amount).Equal(amount))
	require.Equal(t, "$100.00", f.projector.FormatPrice(ctx, amount))

	require.NoError(t, f.projector.SetCurrency(ctx, string(enums.CurrencyEUR)))
	require.True(t, f.projector.ConvertPrice(ctx, amount).Equal(decimal.NewFromFloat(85)))
	require.Equal(t, "€85.00", f.projector.FormatPrice(ctx, amount))
}
