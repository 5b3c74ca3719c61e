// Package response defines the JSON envelope every API endpoint uses.
// Success payloads live under "data", failures under "error" with a
// stable machine-readable code.
package response

import "github.com/gin-gonic/gin"

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   *details `json:"error,omitempty"`
}

type details struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, envelope{Success: true, Data: data})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, envelope{Success: false, Error: &details{Code: code, Message: message}})
}

// ErrorWithDetails attaches structured context to the error, e.g. the
// remaining quota headroom on a rejected upload.
func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, extra any) {
	c.JSON(statusCode, envelope{Success: false, Error: &details{Code: code, Message: message, Details: extra}})
}
