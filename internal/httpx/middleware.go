package httpx

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"

	keyRequestID = "rid"
	keySession   = "sid"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(keyRequestID, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get(keyRequestID)
		uid := Identity(c).UserID
		if uid == "" {
			uid = "-"
		}
		log.Printf("[http] rid=%v uid=%s %s %s status=%d dur=%s",
			rid, uid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Session resolves the browser session from the X-Session-ID header or the
// sid cookie, minting a new one when neither is present. The id is echoed
// back in both places.
func Session(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(SessionHeader)
		if sid == "" {
			sid, _ = c.Cookie(SessionCookie)
		}
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}
		c.Set(keySession, sid)
		c.Writer.Header().Set(SessionHeader, sid)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, int(ttl.Seconds()), "/", "", false, true)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(keySession)
}
