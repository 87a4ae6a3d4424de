package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestGenerationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewGenerationMetrics(reg)
	metrics.Observe(OutcomeSuccess, 1500*time.Millisecond)
	metrics.Observe(OutcomeTimeout, 30*time.Second)
	metrics.AddCommitted("understanding", 3, 21)
	metrics.AddCommitted("understanding", 2, 14)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "generation_requests_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "generation_questions_total", "bloom_level", "understanding"); err != nil {
		t.Fatalf("fetch questions: %v", err)
	} else if got != 5 {
		t.Fatalf("expected 5 questions, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "generation_coins_debited_total", "bloom_level", "understanding"); err != nil {
		t.Fatalf("fetch coins: %v", err)
	} else if got != 35 {
		t.Fatalf("expected 35 coins, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "generation_duration_seconds", "outcome", OutcomeTimeout); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 30 {
		t.Fatalf("expected duration sum 30, got %f", got)
	}
}

func TestWalletMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWalletMetrics(reg)
	metrics.IncTopUp("approved")
	metrics.IncTopUp("")
	metrics.AddCredited(500)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "wallet_top_ups_total", "outcome", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown outcome counted once, got %f err=%v", got, err)
	}
	mf := findMetricFamily(mfs, "wallet_coins_credited_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 500 {
		t.Fatalf("expected 500 credited coins")
	}
}

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.ObserveRequest("/api/v1/questions/{questionId}", "GET", 200, 20*time.Millisecond)
	h.ObserveRequest("/api/v1/questions/{questionId}", "GET", 200, 40*time.Millisecond)
	h.ObserveRequest("", "GET", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/questions/{questionId}")
	if err != nil || got != 2 {
		t.Fatalf("expected 2 requests for the question route, got %v (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected unmatched route to be counted once, got %v (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	var g *GenerationMetrics
	g.Observe(OutcomeSuccess, time.Second)
	NewGenerationMetrics(nil).AddCommitted("applying", 1, 10)
	NewWalletMetrics(nil).IncTopUp("approved")
	NewHTTPMetrics(nil).ObserveRequest("/health/live", "GET", 200, time.Millisecond)
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

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
