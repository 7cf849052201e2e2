package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veilpost/dsa-core/pkg/apperror"
)

// AdminSubject retrieves the authenticated admin subject from the context.
func AdminSubject(c *gin.Context) (string, error) {
	sub, exists := c.Get("admin_sub")
	if !exists {
		return "", apperror.ErrUnauthorized
	}

	subStr, ok := sub.(string)
	if !ok || subStr == "" {
		return "", apperror.ErrUnauthorized
	}

	return subStr, nil
}

// Error writes the standardized error envelope {errorCode, message}.
func Error(c *gin.Context, err error) {
	status := apperror.MapErrorToStatus(err)
	code := apperror.MapErrorToCode(err)

	// Internal detail stays in server logs, never in the response body.
	if status >= http.StatusInternalServerError {
		log.Printf("[internal error] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"errorCode": code, "message": "internal server error"})
		return
	}

	c.JSON(status, gin.H{"errorCode": code, "message": err.Error()})
}
