// Package supervisor provides the client for the remote process supervisor:
// the agent that installs process plans and starts, restarts, and monitors
// the managed workload. The supervisor speaks HTTP+JSON over a local unix
// socket; its process-execution mechanics are out of scope here.
package supervisor
