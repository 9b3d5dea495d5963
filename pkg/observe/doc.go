// Package observe implements the state readers: read-only fetch of the
// supervisor plan, storage status, and relation data, with per-source
// failure isolation.
package observe
