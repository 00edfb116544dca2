package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/stockcast/internal/entities"
	"github.com/mrlokans/stockcast/internal/logging"
)

const msgInvalidBody = "invalid request body"

// Audit actions
const (
	ActionRegister       = "register"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionVerifyPassword = "verify_password"
)

// ErrorResponse is the body of every failed auth request.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageResponse is returned by logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// VerifyPasswordResponse is returned by verify-password.
type VerifyPasswordResponse struct {
	IsValid bool `json:"isValid"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

// WriteError writes err as a JSON error response. Foreign errors are
// reported as internal without exposing their text.
func WriteError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.JSON(status, body)
}

// AbortWithError is WriteError for middleware.
func AbortWithError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}

func errorBody(err error) (int, ErrorResponse) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		authErr = newError(KindInternal, msgInternal, err)
	}
	status := authErr.Kind.HTTPStatus()
	return status, ErrorResponse{
		Status:  status,
		Message: authErr.Message,
		Code:    authErr.Kind.String(),
	}
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service     *Service
	transport   *CookieTransport
	middleware  *Middleware
	rateLimiter *RateLimiter
	auditor     AuditLogger
	logger      logging.Logger
}

// NewAuthController creates a new authentication controller. rateLimiter and
// auditor may be nil.
func NewAuthController(service *Service, transport *CookieTransport, rateLimiter *RateLimiter, auditor AuditLogger, logger logging.Logger) *AuthController {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuthController{
		service:     service,
		transport:   transport,
		middleware:  NewMiddleware(service, transport),
		rateLimiter: rateLimiter,
		auditor:     auditor,
		logger:      logger,
	}
}

// RegisterRoutes registers authentication routes on the group, normally /api/auth.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/check", ac.Check)
	group.POST("/verify-password", ac.middleware.RequireSession(), ac.VerifyPassword)
}

// Middleware returns the session guard for use on other route groups.
func (ac *AuthController) Middleware() *Middleware {
	return ac.middleware
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Register creates an account and sets the session cookie.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, newError(KindValidation, msgInvalidBody, err))
		return
	}

	session, err := ac.service.Register(c.Request.Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ac.audit(c, "", ActionRegister, false)
		WriteError(c, err)
		return
	}

	ac.audit(c, session.Profile.ID, ActionRegister, true)
	ac.transport.Attach(c.Writer, session.Token)
	c.JSON(http.StatusCreated, session.Profile)
}

// Login checks credentials and sets the session cookie.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, newError(KindValidation, msgInvalidBody, err))
		return
	}

	clientIP := c.ClientIP()
	emailKey := entities.NormalizeEmail(req.Email)

	// Reserve an attempt before authenticating; every path below settles it
	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Reserve(clientIP, emailKey)
		if !allowed {
			ac.logger.Warn(c.Request.Context(), "login rate limited", "ip", clientIP, "retry_after", retryAfter.String())
			setRetryAfter(c, retryAfter)
			WriteError(c, newError(KindRateLimited, msgTooManyAttempts, nil))
			return
		}
	}

	session, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			if KindOf(err) == KindInvalidCredentials && emailKey != "" {
				ac.rateLimiter.RecordFailure(clientIP, emailKey)
			} else {
				ac.rateLimiter.Release(clientIP, emailKey)
			}
		}
		ac.audit(c, "", ActionLogin, false)
		WriteError(c, err)
		return
	}

	// Record successful login (clears rate limit tracking)
	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, emailKey)
	}

	ac.audit(c, session.Profile.ID, ActionLogin, true)
	ac.transport.Attach(c.Writer, session.Token)
	c.JSON(http.StatusOK, session.Profile)
}

// Logout clears the session cookie. It succeeds with or without a session.
func (ac *AuthController) Logout(c *gin.Context) {
	if token, ok := ac.transport.Extract(c.Request); ok {
		if profile := ac.service.CheckSession(c.Request.Context(), token); profile != nil {
			ac.audit(c, profile.ID, ActionLogout, true)
		}
	}

	ac.transport.Clear(c.Writer)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// Check returns the current profile, or null when there is no valid session.
func (ac *AuthController) Check(c *gin.Context) {
	token, _ := ac.transport.Extract(c.Request)
	profile := ac.service.CheckSession(c.Request.Context(), token)
	if profile == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// VerifyPassword re-checks the caller's password. Must run behind RequireSession.
func (ac *AuthController) VerifyPassword(c *gin.Context) {
	var req verifyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, newError(KindValidation, msgInvalidBody, err))
		return
	}

	userID := GetUserID(c)
	ok, err := ac.service.VerifyPassword(c.Request.Context(), userID, req.Password)
	if err != nil {
		WriteError(c, err)
		return
	}

	ac.audit(c, userID, ActionVerifyPassword, ok)
	c.JSON(http.StatusOK, VerifyPasswordResponse{IsValid: ok})
}

func (ac *AuthController) audit(c *gin.Context, userID, action string, success bool) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}

// setRetryAfter sets Retry-After in whole seconds, rounded up.
func setRetryAfter(c *gin.Context, d time.Duration) {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
}
