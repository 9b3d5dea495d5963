// Package publisher computes the data this operator owns on each relation:
// the ingress route request, the storage bucket request, and the
// observability registration. Publishers are pure; the controller writes the
// returned records to the relation store.
package publisher
