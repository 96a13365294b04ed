package currency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
	"github.com/shopstudy/shopstudy-backend/pkg/metrics"
)

// baseCurrency is the pivot every rate table is expressed against.
const baseCurrency = "USD"

// Service caches the USD-based rate table and converts display amounts.
// Conversion fails open: when a rate is missing or the table is empty, the
// input amount comes back unchanged so prices never disappear from view.
type Service struct {
	client  RatesClient
	logg    *logger.Logger
	metrics *metrics.CurrencyMetrics
	ttl     time.Duration
	clock   func() time.Time

	mu        sync.Mutex
	rates     RateTable
	fetchedAt time.Time
}

// ServiceParams groups the service's dependencies.
type ServiceParams struct {
	Client  RatesClient
	Logger  *logger.Logger
	Metrics *metrics.CurrencyMetrics
	TTL     time.Duration
	Clock   func() time.Time
}

// NewService builds a rate cache over the given client.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, errors.New("rates client is required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		client:  params.Client,
		logg:    params.Logger,
		metrics: params.Metrics,
		ttl:     ttl,
		clock:   clock,
	}, nil
}

// Rates returns the cached table, refreshing it first when stale or empty.
// A failed refresh surfaces the error and leaves the cached table untouched;
// whether to keep using the last good table is the caller's decision.
func (s *Service) Rates(ctx context.Context) (RateTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh() {
		s.metrics.IncCacheHit()
		return s.snapshot(), nil
	}

	s.metrics.IncFetch()
	fetched, err := s.client.LatestRates(ctx, baseCurrency)
	if err != nil {
		s.metrics.IncFetchFailure()
		if s.logg != nil {
			s.logg.Error(ctx, "exchange rate refresh failed", err)
		}
		return nil, err
	}

	s.rates = fetched
	s.fetchedAt = s.clock()
	return s.snapshot(), nil
}

// Refresh forces a fetch regardless of cache age.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.IncFetch()
	fetched, err := s.client.LatestRates(ctx, baseCurrency)
	if err != nil {
		s.metrics.IncFetchFailure()
		return err
	}
	s.rates = fetched
	s.fetchedAt = s.clock()
	return nil
}

// Convert reprices amount from one currency to another through the USD
// pivot. Same-currency conversion is the identity regardless of cache
// state. Any missing or non-positive rate returns the amount unchanged.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return amount
	}

	if from == baseCurrency {
		rate, ok := rates[to]
		if !ok || rate <= 0 {
			return amount
		}
		return amount.Mul(decimal.NewFromFloat(rate))
	}

	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		return amount
	}
	inBase := amount.Div(decimal.NewFromFloat(fromRate))
	if to == baseCurrency {
		return inBase
	}

	toRate, ok := rates[to]
	if !ok || toRate <= 0 {
		return amount
	}
	return inBase.Mul(decimal.NewFromFloat(toRate))
}

// Format renders the amount with the currency's symbol and two decimals.
// Unknown currencies fall back to the bare code as prefix.
func Format(amount decimal.Decimal, currency string) string {
	cur, err := enums.ParseCurrency(currency)
	if err != nil {
		return currency + amount.StringFixed(2)
	}
	return cur.Symbol() + amount.StringFixed(2)
}

func (s *Service) fresh() bool {
	return len(s.rates) > 0 && s.clock().Sub(s.fetchedAt) < s.ttl
}

func (s *Service) snapshot() RateTable {
	out := make(RateTable, len(s.rates))
	for code, rate := range s.rates {
		out[code] = rate
	}
	return out
}
