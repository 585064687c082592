// Package server exposes the session over HTTP and WebSocket.
package server

import "time"

const (
	// Control messages accepted per connection per window.
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout = 2 * time.Second

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout = 5 * time.Second

	// RecentCycles is the number of cycles returned by /api/cycles.
	RecentCycles = 20
)
