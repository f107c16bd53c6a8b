package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)

	metrics.IncSessionBuilt("stripe")
	metrics.IncConfirmation("stripe", "succeeded")
	metrics.ObserveConfirmDuration("stripe", 250*time.Millisecond)
	metrics.IncItemProvisioned("completed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_sessions_built", "provider", "stripe"); err != nil {
		t.Fatalf("fetch sessions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected sessions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_confirmations", "outcome", "succeeded"); err != nil {
		t.Fatalf("fetch confirmations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected confirmations=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_confirm_duration_seconds", "provider", "stripe"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_items_provisioned", "status", "completed"); err != nil {
		t.Fatalf("fetch provisioned: %v", err)
	} else if got != 1 {
		t.Fatalf("expected provisioned=1, got %f", got)
	}
}

func TestCheckoutMetricsNilRegistererIsNoOp(t *testing.T) {
	metrics := NewCheckoutMetrics(nil)
	metrics.IncSessionBuilt("stripe")
	metrics.IncConfirmation("stripe", "failed")
	metrics.ObserveConfirmDuration("stripe", time.Second)
	metrics.IncItemProvisioned("failed")
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
