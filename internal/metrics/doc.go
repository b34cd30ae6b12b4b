// Package metrics exports tailer and aggregator counters to Prometheus.
//
// Collectors live on a private registry so tests and multiple instances do
// not collide on the default one. Serving is optional and only starts when
// a listen address is configured.
package metrics
