// Package relations implements the shared relation-data store: per-relation
// key/value bags exchanged with connected peer services, with strict
// per-writer field ownership.
package relations
