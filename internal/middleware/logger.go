package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"identity/internal/pkg/response"
)

// RequestIDHeader is echoed on every response and used to correlate log lines.
const RequestIDHeader = "X-Request-ID"

// ErrorLogger assigns a request id, logs failed requests and turns panics
// into a 500 envelope.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(RequestIDHeader, rid)
		c.Header(RequestIDHeader, rid)

		defer func() {
			if recovered := recover(); recovered != nil {
				logFailure(c, rid, start, "panic", fmt.Sprint(recovered))
				log.Printf("panic_stack request_id=%s\n%s", rid, debug.Stack())
				response.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				return
			}

			for _, e := range c.Errors {
				logFailure(c, rid, start, fmt.Sprint(e.Type), e.Error())
			}
			if len(c.Errors) == 0 && c.Writer.Status() >= http.StatusInternalServerError {
				logFailure(c, rid, start, "http_error", http.StatusText(c.Writer.Status()))
			}
		}()

		c.Next()
	}
}

func logFailure(c *gin.Context, rid string, start time.Time, kind, message string) {
	actor := "anon"
	if p, ok := PrincipalFrom(c); ok {
		actor = p.ID.String()
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	log.Printf("request_failed request_id=%s kind=%s status=%d method=%s route=%q ip=%s user_id=%s took=%s error=%q",
		rid, kind, c.Writer.Status(), c.Request.Method, route, c.ClientIP(), actor, time.Since(start).Round(time.Microsecond), message)
}
