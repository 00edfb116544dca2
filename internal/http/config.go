package http

import (
	"github.com/mrlokans/stockcast/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Authentication endpoints and the session guard
	AuthController *auth.AuthController

	// Health checks
	Database Pinger
	Version  string

	// AllowedOrigins lists the origins permitted to make credentialed
	// cross-site requests. Empty disables CORS headers entirely.
	AllowedOrigins []string

	// EnableHSTS adds Strict-Transport-Security on TLS requests.
	EnableHSTS bool
}
