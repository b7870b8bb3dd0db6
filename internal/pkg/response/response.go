package response

import (
	"log/slog"

	"blogengine/internal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// FromError writes err as an error envelope. Typed errors are translated
// verbatim; anything else is logged and reported as a generic 500.
func FromError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.Internal {
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	Error(c, appErr.Status(), appErr.ResponseCode(), appErr.Message)
}

// AbortWithError is FromError for middleware: the chain stops after writing.
func AbortWithError(c *gin.Context, err error) {
	FromError(c, err)
	c.Abort()
}
