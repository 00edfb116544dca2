package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// CookieTransport binds session tokens to an HttpOnly, SameSite=Strict cookie.
type CookieTransport struct {
	Name   string
	Path   string
	MaxAge time.Duration
	Secure bool // false only for local plaintext HTTP development
}

// NewCookieTransport creates a transport for the "jwt" cookie.
func NewCookieTransport(secure bool, maxAge time.Duration) *CookieTransport {
	if maxAge <= 0 {
		maxAge = DefaultTokenTTL
	}
	return &CookieTransport{
		Name:   SessionCookieName,
		Path:   "/",
		MaxAge: maxAge,
		Secure: secure,
	}
}

// Attach sets the session cookie on the response.
func (t *CookieTransport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    token,
		Path:     t.Path,
		MaxAge:   int(t.MaxAge / time.Second),
		Expires:  time.Now().Add(t.MaxAge),
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Extract returns the session token from the request, if any.
func (t *CookieTransport) Extract(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(t.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear overwrites the session cookie with an empty, already expired value
// so the browser drops it immediately.
func (t *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    "",
		Path:     t.Path,
		MaxAge:   -1, // emitted as Max-Age=0
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
