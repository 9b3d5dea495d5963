// Package events defines the triggering events that cause a controller
// invocation and a small broker used by daemon mode to distribute them.
package events
