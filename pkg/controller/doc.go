/*
Package controller implements the reconciliation entry point invoked once
per triggering event.

Each invocation runs the fixed sequence Read -> Build -> Diff&Apply ->
Publish -> Report and then returns. Nothing is remembered between
invocations: desired state is recomputed from scratch and compared against
freshly observed remote state, so any partial effect left by an interrupted
run is detected and corrected by the next one.
*/
package controller
