// Package prometheus exposes authflow engine metrics to Prometheus.
//
// [Collector] implements prometheus.Collector and reads the engine snapshot
// on every scrape. Register it with any registry, or mount [Collector.Handler]
// for a standalone endpoint. Counter names are authflow_*_total; the single
// histogram is authflow_gateway_latency_seconds.
//
// The package never registers anything in the global registry.
package prometheus
