// Package health probes the managed workload's readiness endpoint over HTTP.
package health
