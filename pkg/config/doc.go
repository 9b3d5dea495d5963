// Package config defines the declared options schema for the managed
// ReductStore workload and its validation rules. The schema is fixed and
// statically typed; the decoder rejects unknown fields.
package config
