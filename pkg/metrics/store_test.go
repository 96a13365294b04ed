package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.IncNotFoundNoOp("add_to_cart")
	m.IncNotFoundNoOp("add_to_cart")
	m.IncDecodeFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "userstore_not_found_noops_total", "op", "add_to_cart"); err != nil {
		t.Fatalf("fetch not found counter: %v", err)
	} else if got != 2 {
		t.Fatalf("expected not_found=2, got %f", got)
	}

	if got, err := fetchPlainCounterValue(mfs, "userstore_decode_failures_total"); err != nil {
		t.Fatalf("fetch decode counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected decode_failures=1, got %f", got)
	}
}

func TestCurrencyMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCurrencyMetrics(reg)

	m.IncCacheHit()
	m.IncFetch()
	m.IncFetchFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, name := range []string{
		"currency_cache_hits_total",
		"currency_fetches_total",
		"currency_fetch_failures_total",
	} {
		if got, err := fetchPlainCounterValue(mfs, name); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var sm *StoreMetrics
	sm.IncNotFoundNoOp("x")
	sm.IncDecodeFailure()

	var cm *CurrencyMetrics
	cm.IncCacheHit()
	cm.IncFetch()
	cm.IncFetchFailure()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchPlainCounterValue(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	if len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q has no samples", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
