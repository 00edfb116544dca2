package auth

import (
	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID  = "auth_user_id"
	ContextKeyProfile = "auth_profile"
)

// Middleware guards routes that need an authenticated session.
type Middleware struct {
	service   *Service
	transport *CookieTransport
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, transport *CookieTransport) *Middleware {
	return &Middleware{
		service:   service,
		transport: transport,
	}
}

// RequireSession rejects requests without a valid session with 401 and
// stores the caller's profile in the gin context otherwise.
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := m.transport.Extract(c.Request)

		profile, err := m.service.Authorize(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(ContextKeyUserID, profile.ID)
		c.Set(ContextKeyProfile, profile)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns "" outside a guarded route.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(string); ok {
			return userID
		}
	}
	return ""
}

// GetProfile retrieves the authenticated user's profile from the context.
func GetProfile(c *gin.Context) *Profile {
	if p, exists := c.Get(ContextKeyProfile); exists {
		if profile, ok := p.(*Profile); ok {
			return profile
		}
	}
	return nil
}

// IsAuthenticated returns true if the request passed RequireSession.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
