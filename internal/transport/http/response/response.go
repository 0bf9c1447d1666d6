package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest         = 40000
	CodeUsernameExists     = 40001
	CodeEmailExists        = 40002
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeInternalServer     = 50000
	CodeUpstream           = 50200
)

// ErrorBody is the only error shape the API returns.
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// JSON writes a bare resource, no envelope.
func JSON(c *gin.Context, httpStatus int, data any) {
	c.JSON(httpStatus, data)
}

func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"message": message})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
	})
}
