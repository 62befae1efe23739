package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveBackfillClassifiesSuccessAndPartial(t *testing.T) {
	r := NewRegistry()

	r.ObserveBackfill(3, 3, 12.5)
	if v := counterValue(t, r.BackfillSuccess); v != 1 {
		t.Fatalf("expected one success, got %v", v)
	}
	if v := counterValue(t, r.BackfillPartial); v != 0 {
		t.Fatalf("expected zero partial, got %v", v)
	}

	r.ObserveBackfill(3, 1, 40)
	if v := counterValue(t, r.BackfillPartial); v != 1 {
		t.Fatalf("expected one partial, got %v", v)
	}

	if v := counterValue(t, r.BackfillTotal); v != 2 {
		t.Fatalf("expected total of 2, got %v", v)
	}
}

func TestRegisterAttachesEveryCollector(t *testing.T) {
	r := NewRegistry()
	reg := prometheus.NewRegistry()
	if err := r.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 7 {
		t.Fatalf("expected 7 registered collectors, got %d", len(families))
	}
}
