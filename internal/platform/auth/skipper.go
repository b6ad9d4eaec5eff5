package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that should bypass authentication and tenant
// resolution. These are infrastructure endpoints (health checks, metrics)
// and auth endpoints that must be accessible without credentials.
var publicPaths = map[string]bool{
	"/health":              true,
	"/health/db":           true,
	"/metrics":             true,
	"/auth/token":          true,
	"/auth/password-reset": true,
}

// AuthSkipper returns true for requests whose path should skip authentication.
// Pass this function as the Skipper on JWTConfig or DevAuthMiddleware so that
// health-check, metrics, and token endpoints remain accessible without a
// bearer token or tenant context.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is a public infrastructure
// endpoint that should bypass auth and tenant middleware.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
