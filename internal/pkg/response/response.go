package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity/internal/pkg/apperr"
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

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

func ValidationError(c *gin.Context, fields map[string]string) {
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
}

// FromError renders err using its apperr category and code. Anything else
// is reported as an internal error without leaking the cause.
func FromError(c *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Category == apperr.CategoryInternal {
			_ = c.Error(err)
		}
		Error(c, e.Category.HTTPStatus(), e.Code, e.Message)
		return
	}

	_ = c.Error(err)
	log.Printf("unhandled_error path=%s error=%v", c.FullPath(), err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
