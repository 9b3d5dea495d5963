// Package metrics defines the operator's Prometheus collectors and the
// /metrics handler served in daemon mode.
package metrics
