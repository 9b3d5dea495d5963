// Package volume reads durable storage attachment status and mounts the
// attached volume at the workload's data path.
package volume
