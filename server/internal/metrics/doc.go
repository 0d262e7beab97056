// Package metrics exposes WebSocket server activity in the Prometheus text
// exposition format.
//
// Collector implements ws.Observer, so it is handed to ws.New through
// ws.WithObserver and counts connections, handshake rejections and
// broadcasts. Its ServeHTTP method serves /metrics.
package metrics
