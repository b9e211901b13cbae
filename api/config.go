// Package api provides an HTTP API server for browsing the snapshot archive
// and triggering backups.
package api

import "github.com/prometheus/client_golang/prometheus"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8790")
	ListenAddr string

	// Gatherer backs the /metrics endpoint. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
}
