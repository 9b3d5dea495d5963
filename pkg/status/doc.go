// Package status maps internal reconcile outcomes onto the small fixed set
// of externally visible workload states.
package status
