// Package internaldefs holds the metric names, help texts and bucket bounds
// shared by the exporters.
//
// The Prometheus and OTel exporters both read these tables, so a rename here
// changes every exporter at once.
package internaldefs
