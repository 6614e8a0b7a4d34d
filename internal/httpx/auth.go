package httpx

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/auth"
)

const keyIdentity = "identity"

// OptionalAuth attaches the caller's identity when a valid bearer token is
// sent. Requests without one, or with a bad one, continue anonymously.
func OptionalAuth(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); h != "" {
			if id, err := v.FromHeader(h); err == nil {
				c.Set(keyIdentity, id)
				c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
			}
		}
		c.Next()
	}
}

func Identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(keyIdentity); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).Authenticated() {
			Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

// AdminChecker reports whether a user may use the back office.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type AdminCheckerFunc func(ctx context.Context, userID string) (bool, error)

func (f AdminCheckerFunc) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

// RequireAdmin must run after OptionalAuth.
func RequireAdmin(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		if !id.Authenticated() {
			Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		ok, err := admins.IsAdmin(c.Request.Context(), id.UserID)
		if err != nil {
			rid, _ := c.Get(keyRequestID)
			log.Printf("[http] rid=%v uid=%s admin check: %v", rid, id.UserID, err)
			Abort(c, http.StatusServiceUnavailable, "admin check unavailable")
			return
		}
		if !ok {
			Abort(c, http.StatusForbidden, "admin only")
			return
		}
		c.Next()
	}
}
