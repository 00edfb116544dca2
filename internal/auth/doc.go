// Package auth provides session-credential authentication for the API.
//
// A session is an HS256 JWT carried in an HttpOnly, SameSite=Strict cookie
// named "jwt" and lives for a fixed 30 days. There is no server-side session table: logout clears the
// cookie and a token stays valid until it expires.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<at least 32 bytes>   # Auto-generated if empty
//	AUTH_BCRYPT_COST=12                   # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5             # Failures before lockout
//	APP_ENV=development                   # Disables the Secure cookie flag
//
// # Usage
//
// Wire the service in entrypoint:
//
//	codec, _ := auth.NewTokenCodec(secret)
//	service := auth.NewService(store, auth.NewBcryptHasher(cfg.Auth.BcryptCost), codec, logger)
//	transport := auth.NewCookieTransport(cfg.IsProduction(), auth.DefaultTokenTTL)
//	controller := auth.NewAuthController(service, transport, limiter, auditor, logger)
//	controller.RegisterRoutes(router.Group("/api/auth"))
//
// Protect other routes with the guard and read the caller in handlers:
//
//	api.Use(controller.Middleware().RequireSession())
//	userID := auth.GetUserID(c)
package auth
