package metrics

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names.
const (
	ClientsConnected       = "scenestream_clients_connected"
	ConnectionsTotal       = "scenestream_connections_total"
	DisconnectionsTotal    = "scenestream_disconnections_total"
	HandshakeRejections    = "scenestream_handshake_rejections_total"
	BroadcastsTotal        = "scenestream_broadcasts_total"
	BroadcastWriteFailures = "scenestream_broadcast_write_failures_total"
	BroadcastBytesTotal    = "scenestream_broadcast_bytes_total"
)

// Collector counts WebSocket server events. All methods are safe for
// concurrent use. The zero value is ready to use.
type Collector struct {
	connected      atomic.Int64
	connections    atomic.Uint64
	disconnections atomic.Uint64
	rejections     atomic.Uint64
	broadcasts     atomic.Uint64
	writeFailures  atomic.Uint64
	bytes          atomic.Uint64
}

// New returns an empty Collector.
func New() *Collector { return &Collector{} }

func (c *Collector) ClientConnected(string) {
	c.connected.Add(1)
	c.connections.Add(1)
}

func (c *Collector) ClientDisconnected(string) {
	c.connected.Add(-1)
	c.disconnections.Add(1)
}

func (c *Collector) HandshakeRejected(string, error) {
	c.rejections.Add(1)
}

func (c *Collector) Broadcast(delivered, failed, bytes int) {
	c.broadcasts.Add(1)
	c.writeFailures.Add(uint64(failed))
	c.bytes.Add(uint64(bytes))
}

// Families returns the current values as Prometheus metric families.
func (c *Collector) Families() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		gauge(ClientsConnected, "Clients currently registered for broadcasts.", float64(c.connected.Load())),
		counter(ConnectionsTotal, "Clients that completed the opening handshake.", c.connections.Load()),
		counter(DisconnectionsTotal, "Registered clients that went away.", c.disconnections.Load()),
		counter(HandshakeRejections, "Connections closed because the opening handshake was invalid.", c.rejections.Load()),
		counter(BroadcastsTotal, "Broadcast cycles run with at least one registered client.", c.broadcasts.Load()),
		counter(BroadcastWriteFailures, "Per-client frame writes that failed or timed out.", c.writeFailures.Load()),
		counter(BroadcastBytesTotal, "Frame bytes written to clients.", c.bytes.Load()),
	}
}

// ServeHTTP writes the metric families in the text exposition format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range c.Families() {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("metrics: encode failed", "metric", mf.GetName(), "err", err)
			return
		}
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: &v}}},
	}
}

func counter(name, help string, n uint64) *dto.MetricFamily {
	v := float64(n)
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: &v}}},
	}
}
