// Package types defines the shared data model for the operator: desired and
// observed workload state, relation records, mutations, reconcile outcomes,
// and the error taxonomy used across packages.
package types
