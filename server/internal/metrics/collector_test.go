package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/scenestream/scenestream/server/internal/ws"
)

var _ ws.Observer = (*Collector)(nil)

// scrape serves /metrics and parses the exposition back into families.
func scrape(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	rr := httptest.NewRecorder()
	c.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

func value(t *testing.T, mfs map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf, ok := mfs[name]
	if !ok {
		t.Fatalf("metric %s missing", name)
	}
	m := mf.GetMetric()[0]
	switch mf.GetType() {
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s: unexpected type %v", name, mf.GetType())
	return 0
}

func TestCollector_Empty(t *testing.T) {
	mfs := scrape(t, New())
	for _, name := range []string{
		ClientsConnected, ConnectionsTotal, DisconnectionsTotal, HandshakeRejections,
		BroadcastsTotal, BroadcastWriteFailures, BroadcastBytesTotal,
	} {
		if v := value(t, mfs, name); v != 0 {
			t.Errorf("%s: got %v, want 0", name, v)
		}
	}
	if mfs[ClientsConnected].GetType() != dto.MetricType_GAUGE {
		t.Errorf("%s type: got %v, want GAUGE", ClientsConnected, mfs[ClientsConnected].GetType())
	}
}

func TestCollector_CountsEvents(t *testing.T) {
	c := New()
	c.ClientConnected("a")
	c.ClientConnected("b")
	c.ClientConnected("c")
	c.ClientDisconnected("b")
	c.HandshakeRejected("d", errors.New("no key"))
	c.Broadcast(2, 1, 100)
	c.Broadcast(2, 0, 100)

	mfs := scrape(t, c)
	want := map[string]float64{
		ClientsConnected:       2,
		ConnectionsTotal:       3,
		DisconnectionsTotal:    1,
		HandshakeRejections:    1,
		BroadcastsTotal:        2,
		BroadcastWriteFailures: 1,
		BroadcastBytesTotal:    200,
	}
	for name, w := range want {
		if got := value(t, mfs, name); got != w {
			t.Errorf("%s: got %v, want %v", name, got, w)
		}
	}
}

func TestCollector_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	New().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
