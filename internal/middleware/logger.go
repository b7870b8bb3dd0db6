package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request and turns panics into a 500 envelope.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					append(requestAttrs(c, start),
						"error", fmt.Sprintf("%v", recovered),
						"stack", string(debug.Stack()),
					)...,
				)
				if !c.Writer.Written() {
					response.Error(c, http.StatusInternalServerError,
						apperror.Internal.Code(), apperror.New(apperror.Internal, "").Message)
				}
				c.Abort()
				return
			}

			attrs := requestAttrs(c, start)
			switch {
			case len(c.Errors) > 0:
				logger.ErrorContext(c.Request.Context(), "request error",
					append(attrs, "errors", c.Errors.String())...)
			case c.Writer.Status() >= http.StatusInternalServerError:
				logger.ErrorContext(c.Request.Context(), "request", attrs...)
			default:
				logger.InfoContext(c.Request.Context(), "request", attrs...)
			}
		}()

		c.Next()
	}
}

func requestAttrs(c *gin.Context, start time.Time) []any {
	return []any{
		"status", c.Writer.Status(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"user_id", UserID(c),
		"request_id", requestID(c),
		"latency", time.Since(start),
	}
}

func requestID(c *gin.Context) string {
	return c.GetHeader("X-Request-ID")
}
