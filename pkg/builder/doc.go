// Package builder computes the complete desired configuration for the
// workload from declared options, peer-published relation data, and storage
// status. It performs no I/O.
package builder
