// Package monitoring provides Prometheus metrics and the Gin middleware
// that records per-request observations.
package monitoring
