// Package log provides structured logging for the operator, built on
// zerolog. It exposes a global logger plus child-logger helpers scoped to a
// component, invocation, event, or relation.
package log
