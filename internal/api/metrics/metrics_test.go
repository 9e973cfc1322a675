package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	LoginsTotal.WithLabelValues("success").Inc()
	NotificationDuration.Observe(0.1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, f := range families {
		seen[f.GetName()] = true
	}
	for _, want := range []string{"taskflow_logins_total", "taskflow_notification_duration_seconds"} {
		if !seen[want] {
			t.Errorf("expected %s in gathered families", want)
		}
	}
}

func TestRegister_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewGauge(prometheus.GaugeOpts{Name: "taskflow_logins_total", Help: "clash"})
	if err := reg.Register(clash); err != nil {
		t.Fatalf("register clash: %v", err)
	}
	if err := Register(reg); err == nil {
		t.Fatal("expected a conflicting collector to be reported")
	}
}
