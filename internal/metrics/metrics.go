// Package metrics tracks request counters for a serving session.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
)

// ServeMetrics is safe for concurrent use by request handlers.
type ServeMetrics struct {
	StartTime time.Time

	requests    atomic.Int64
	notFound    atomic.Int64
	errors      atomic.Int64
	wasmServed  atomic.Int64
	bytesServed atomic.Int64
}

// NewServeMetrics creates a new metrics instance.
func NewServeMetrics() *ServeMetrics {
	return &ServeMetrics{
		StartTime: time.Now(),
	}
}

// Record counts one finished response.
func (m *ServeMetrics) Record(status int, size int64, wasm bool) {
	m.requests.Add(1)
	m.bytesServed.Add(size)
	switch {
	case status == http.StatusNotFound:
		m.notFound.Add(1)
	case status >= 400:
		m.errors.Add(1)
	}
	if wasm && status < 300 {
		m.wasmServed.Add(1)
	}
}

// Requests returns the number of responses recorded.
func (m *ServeMetrics) Requests() int64 { return m.requests.Load() }

// NotFound returns the number of 404 responses.
func (m *ServeMetrics) NotFound() int64 { return m.notFound.Load() }

// Errors returns the number of 4xx/5xx responses other than 404.
func (m *ServeMetrics) Errors() int64 { return m.errors.Load() }

// WasmServed returns the number of successful .wasm responses.
func (m *ServeMetrics) WasmServed() int64 { return m.wasmServed.Load() }

// BytesServed returns the total body bytes written.
func (m *ServeMetrics) BytesServed() int64 { return m.bytesServed.Load() }

// Uptime returns the time since the metrics were created.
func (m *ServeMetrics) Uptime() time.Duration {
	return time.Since(m.StartTime)
}

// String returns a single-line session summary.
func (m *ServeMetrics) String() string {
	return fmt.Sprintf("📊 Served %d requests (%s, %d wasm, %d not found, %d errors) in %v",
		m.Requests(),
		units.HumanSize(float64(m.BytesServed())),
		m.WasmServed(),
		m.NotFound(),
		m.Errors(),
		m.Uptime().Round(time.Second),
	)
}
