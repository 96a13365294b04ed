package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics surfaces the user record store's silent failure modes.
// Mutations against a missing record are no-ops by contract, so the counter
// is the only way to notice them from the outside.
type StoreMetrics struct {
	notFoundNoOps  *prometheus.CounterVec
	decodeFailures prometheus.Counter
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	notFound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "userstore_not_found_noops_total",
		Help: "Store mutations that no-opped because the user record was missing.",
	}, []string{"op"})
	decode := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "userstore_decode_failures_total",
		Help: "Times the persisted profile blob failed to decode and was treated as empty.",
	})
	reg.MustRegister(notFound, decode)
	return &StoreMetrics{
		notFoundNoOps:  notFound,
		decodeFailures: decode,
	}
}

// IncNotFoundNoOp records a mutation that silently no-opped for the named op.
func (m *StoreMetrics) IncNotFoundNoOp(op string) {
	if m == nil || m.notFoundNoOps == nil {
		return
	}
	m.notFoundNoOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncDecodeFailure records a persisted blob that could not be decoded.
func (m *StoreMetrics) IncDecodeFailure() {
	if m == nil || m.decodeFailures == nil {
		return
	}
	m.decodeFailures.Inc()
}

// CurrencyMetrics tracks exchange rate cache behavior.
type CurrencyMetrics struct {
	cacheHits     prometheus.Counter
	fetches       prometheus.Counter
	fetchFailures prometheus.Counter
}

// NewCurrencyMetrics registers the currency metrics on the provided registerer.
func NewCurrencyMetrics(reg prometheus.Registerer) *CurrencyMetrics {
	if reg == nil {
		return &CurrencyMetrics{}
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "currency_cache_hits_total",
		Help: "Rate lookups served from the in-memory cache.",
	})
	fetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "currency_fetches_total",
		Help: "Rate fetches issued to the exchange rate provider.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "currency_fetch_failures_total",
		Help: "Rate fetches that failed and left the cache untouched.",
	})
	reg.MustRegister(hits, fetches, failures)
	return &CurrencyMetrics{
		cacheHits:     hits,
		fetches:       fetches,
		fetchFailures: failures,
	}
}

// IncCacheHit records a lookup answered by the cached table.
func (m *CurrencyMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncFetch records an outbound rate fetch.
func (m *CurrencyMetrics) IncFetch() {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.Inc()
}

// IncFetchFailure records a failed outbound rate fetch.
func (m *CurrencyMetrics) IncFetchFailure() {
	if m == nil || m.fetchFailures == nil {
		return
	}
	m.fetchFailures.Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
