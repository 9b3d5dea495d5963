/*
Package reconciler implements the diff and apply engine: a structural diff
between the desired configuration and the configuration implied by observed
state, producing an ordered mutation list that is applied with bounded
retries.

Mutations are ordered so that storage is mounted before the process plan is
updated, the plan is updated before the process is started or restarted, and
relation data is published last. Every mutation is an idempotent
set-to-desired operation; a failure aborts the remaining sequence without
rollback, and the next invocation recomputes the diff from fresh observed
state.
*/
package reconciler
