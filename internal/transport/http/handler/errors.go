package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/response"
)

// writeError maps service errors onto the API error taxonomy. Unknown errors
// are logged and reported with a generic message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDuplicateUsername):
		response.Error(c, http.StatusBadRequest, response.CodeUsernameExists, "Username already exists")
	case errors.Is(err, app.ErrDuplicateEmail):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, "Email already exists")
	case errors.Is(err, app.ErrInvalidCredentials):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "forbidden: you do not own this resource")
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "User not found")
	case errors.Is(err, app.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Post not found")
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	case errors.Is(err, app.ErrUpstream):
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, "upstream service failed")
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"err", err,
		)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error")
	}
}

// writeBindError reports a request body that could not be decoded or failed
// its binding tags.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "validation failed: "+describeField(fe))
		return
	}
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "validation failed: invalid request payload")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gender":
		return field + " must be one of Male, Female, Non Binary"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// parseID treats a malformed id like an unknown one.
func parseID(c *gin.Context, notFound error) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(c, notFound)
		return 0, false
	}
	return uint(id), true
}
